/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package a1base

import "context"

// SendIndividualMessage sends a message to a single recipient.
// From and Content are required. Content is sanitized and AttachmentURI, if set, must be an http(s) URL.
func (c *Client) SendIndividualMessage(
	ctx context.Context, accountID string, data SendIndividualMessageData,
) (Response, error) {
	if data.From == "" {
		return nil, missingFieldError("from")
	}
	if data.Content == "" {
		return nil, missingFieldError("content")
	}
	data.Content = Sanitize(data.Content)
	var err error
	if data.AttachmentURI, err = ValidateAttachmentURI(data.AttachmentURI); err != nil {
		return nil, err
	}
	return c.post(ctx, endpointSendIndividualMessage, pathParams{"accountID": accountID}, data)
}

// SendGroupMessage sends a message to a group thread.
// From and Content are required. Content is sanitized and AttachmentURI, if set, must be an http(s) URL.
func (c *Client) SendGroupMessage(ctx context.Context, accountID string, data SendGroupMessageData) (Response, error) {
	if data.From == "" {
		return nil, missingFieldError("from")
	}
	if data.Content == "" {
		return nil, missingFieldError("content")
	}
	data.Content = Sanitize(data.Content)
	var err error
	if data.AttachmentURI, err = ValidateAttachmentURI(data.AttachmentURI); err != nil {
		return nil, err
	}
	return c.post(ctx, endpointSendGroupMessage, pathParams{"accountID": accountID}, data)
}

// GetMessageDetails returns a single message.
func (c *Client) GetMessageDetails(ctx context.Context, accountID, messageID string) (*MessageDetails, error) {
	var details MessageDetails
	params := pathParams{"accountID": accountID, "messageID": messageID}
	if err := c.get(ctx, endpointGetMessageDetails, params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetChatGroupDetails returns the name and participants of a group thread.
func (c *Client) GetChatGroupDetails(ctx context.Context, accountID, threadID string) (*GroupDetails, error) {
	var details GroupDetails
	params := pathParams{"accountID": accountID, "threadID": threadID}
	if err := c.get(ctx, endpointGetChatGroupDetails, params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetRecentMessages returns the latest messages of a thread.
func (c *Client) GetRecentMessages(ctx context.Context, accountID, threadID string) (*RecentMessages, error) {
	var messages RecentMessages
	params := pathParams{"accountID": accountID, "threadID": threadID}
	if err := c.get(ctx, endpointGetRecentMessages, params, &messages); err != nil {
		return nil, err
	}
	return &messages, nil
}

// GetAllThreads lists the threads of an account.
func (c *Client) GetAllThreads(ctx context.Context, accountID string) (*ThreadList, error) {
	var threads ThreadList
	if err := c.get(ctx, endpointGetAllThreads, pathParams{"accountID": accountID}, &threads); err != nil {
		return nil, err
	}
	return &threads, nil
}

// GetAllThreadsByNumber lists the threads of an account that involve phoneNumber.
func (c *Client) GetAllThreadsByNumber(ctx context.Context, accountID, phoneNumber string) (*ThreadList, error) {
	var threads ThreadList
	params := pathParams{"accountID": accountID, "phoneNumber": phoneNumber}
	if err := c.get(ctx, endpointGetAllThreadsByNumber, params, &threads); err != nil {
		return nil, err
	}
	return &threads, nil
}

// GetUpdates returns the pending updates of the account the credentials belong to.
func (c *Client) GetUpdates(ctx context.Context) (Response, error) {
	var resp Response
	if err := c.get(ctx, endpointGetUpdates, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
