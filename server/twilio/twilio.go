package twilio

import (
	"fmt"

	"github.com/Daskott/lifeline/server/logger"
	"github.com/Daskott/lifeline/shared"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

var logg = logger.NewLogger()

// ClientWrapper sends SMS through twilio's messaging service
type ClientWrapper struct {
	client *twilio.RestClient
	config shared.TwilioConfig
}

func NewClient(config shared.TwilioConfig) *ClientWrapper {
	client := twilio.NewRestClientWithParams(twilio.RestClientParams{
		Username: config.AccountSid,
		Password: config.AuthToken,
	})

	return &ClientWrapper{
		client: client,
		config: config,
	}
}

func (cw *ClientWrapper) SendMessage(to, msg string) error {
	if to == "" {
		return fmt.Errorf("SendMessage: no phone number to send to")
	}

	params := &openapi.CreateMessageParams{}
	params.SetMessagingServiceSid(cw.config.MessagingServiceSid)
	params.SetTo(to)
	params.SetBody(msg)

	resp, err := cw.client.ApiV2010.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("SendMessage: %v", err)
	}

	if resp.ErrorMessage != nil && *resp.ErrorMessage != "" {
		return fmt.Errorf("SendMessage: %v", *resp.ErrorMessage)
	}

	if resp.Sid != nil {
		logg.Debugf("sms queued with sid=%v", *resp.Sid)
	}

	return nil
}
