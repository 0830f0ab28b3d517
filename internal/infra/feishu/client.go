// Package feishu sends notification messages through the Feishu (Lark) open platform
package feishu

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"

	"github.com/DevRickLin/matchmate/internal/logging"
)

// Client is a send-only Feishu bot client
type Client struct {
	larkCli *lark.Client
	log     *logging.Logger
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string, opts ...lark.ClientOptionFunc) *Client {
	return &Client{
		larkCli: lark.NewClient(appID, appSecret, opts...),
		log:     logging.New("Feishu"),
	}
}

func (c *Client) send(ctx context.Context, chatID, msgType string, content interface{}) error {
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(msgType).
			Content(string(contentJSON)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send message error: %s", resp.Msg)
	}

	c.log.Debugf("Message sent to %s", chatID)
	return nil
}

// SendText sends a text message to a chat
func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	return c.send(ctx, chatID, larkim.MsgTypeText, map[string]string{"text": text})
}

// SendPost sends a rich text (post) message with a title and one paragraph
func (c *Client) SendPost(ctx context.Context, chatID, title, text string) error {
	post := map[string]interface{}{
		"zh_cn": map[string]interface{}{
			"title": title,
			"content": [][]map[string]interface{}{
				{{"tag": "text", "text": text}},
			},
		},
	}
	return c.send(ctx, chatID, larkim.MsgTypePost, post)
}
