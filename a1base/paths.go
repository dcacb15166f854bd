/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package a1base

import (
	_ "embed" // for path tables
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

// PathVersion selects a set of endpoint paths.
type PathVersion string

// Path versions.
const (
	// PathVersionV1 is the legacy layout without the "/messages" segment and with a flat WhatsApp payload.
	PathVersionV1 PathVersion = "v1"

	// PathVersionV2 is the current layout.
	PathVersionV2 PathVersion = "v2"
)

type endpoint string

const (
	endpointSendIndividualMessage endpoint = "sendIndividualMessage"
	endpointSendGroupMessage      endpoint = "sendGroupMessage"
	endpointGetMessageDetails     endpoint = "getMessageDetails"
	endpointGetChatGroupDetails   endpoint = "getChatGroupDetails"
	endpointGetRecentMessages     endpoint = "getRecentMessages"
	endpointGetAllThreads         endpoint = "getAllThreads"
	endpointGetAllThreadsByNumber endpoint = "getAllThreadsByNumber"
	endpointGetUpdates            endpoint = "getUpdates"
	endpointWhatsAppIncoming      endpoint = "whatsAppIncoming"
	endpointSendEmail             endpoint = "sendEmail"
	endpointCreateEmailAddress    endpoint = "createEmailAddress"
)

var allEndpoints = []endpoint{
	endpointSendIndividualMessage,
	endpointSendGroupMessage,
	endpointGetMessageDetails,
	endpointGetChatGroupDetails,
	endpointGetRecentMessages,
	endpointGetAllThreads,
	endpointGetAllThreadsByNumber,
	endpointGetUpdates,
	endpointWhatsAppIncoming,
	endpointSendEmail,
	endpointCreateEmailAddress,
}

type payloadShape string

const (
	payloadShapeFlat   payloadShape = "flat"
	payloadShapeNested payloadShape = "nested"
)

type pathParams map[string]string

type pathTable struct {
	WhatsAppPayload payloadShape        `yaml:"whatsAppPayload"`
	Endpoints       map[endpoint]string `yaml:"endpoints"`
}

//go:embed paths.yaml
var pathsYAML []byte

var defaultPathTables = mustParsePathTables(pathsYAML)

func parsePathTables(data []byte) (map[PathVersion]*pathTable, error) {
	var tables map[PathVersion]*pathTable
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("unmarshal path tables: %w", err)
	}
	for version, table := range tables {
		if table == nil {
			return nil, fmt.Errorf("path table %s is empty", version)
		}
		switch table.WhatsAppPayload {
		case payloadShapeFlat, payloadShapeNested:
		default:
			return nil, fmt.Errorf("path table %s: unknown whatsapp payload shape %q", version, table.WhatsAppPayload)
		}
		for _, e := range allEndpoints {
			tmpl, ok := table.Endpoints[e]
			if !ok || !strings.HasPrefix(tmpl, "/") {
				return nil, fmt.Errorf("path table %s: endpoint %s is missing or not absolute", version, e)
			}
		}
	}
	return tables, nil
}

func mustParsePathTables(data []byte) map[PathVersion]*pathTable {
	tables, err := parsePathTables(data)
	if err != nil {
		panic(err)
	}
	return tables
}

func pathTableFor(version PathVersion) (*pathTable, error) {
	if version == "" {
		version = PathVersionV2
	}
	table, ok := defaultPathTables[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPathVersion, version)
	}
	return table, nil
}

// path expands the template of e. Every placeholder must have a non-empty value.
func (t *pathTable) path(e endpoint, params pathParams) (string, error) {
	tmpl := t.Endpoints[e]
	var b strings.Builder
	for {
		start := strings.IndexByte(tmpl, '{')
		if start < 0 {
			b.WriteString(tmpl)
			return b.String(), nil
		}
		end := strings.IndexByte(tmpl[start:], '}')
		if end < 0 {
			return "", fmt.Errorf("malformed path template %q", t.Endpoints[e])
		}
		name := tmpl[start+1 : start+end]
		value := params[name]
		if value == "" {
			return "", fmt.Errorf("%w: %s", ErrMissingField, name)
		}
		b.WriteString(tmpl[:start])
		b.WriteString(url.PathEscape(value))
		tmpl = tmpl[start+end+1:]
	}
}
