package chatbot

import (
	"context"
	"fmt"

	dialogflow "cloud.google.com/go/dialogflow/apiv2"
	"cloud.google.com/go/dialogflow/apiv2/dialogflowpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

// DialogflowClient is an IntentClient backed by a Dialogflow ES agent.
type DialogflowClient struct {
	sessions  *dialogflow.SessionsClient
	projectID string
	language  string
}

func NewDialogflowClient(ctx context.Context, projectID, keyFile, language string) (*DialogflowClient, error) {
	var opts []option.ClientOption
	if keyFile != "" {
		opts = append(opts, option.WithCredentialsFile(keyFile))
	}
	sessions, err := dialogflow.NewSessionsClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create dialogflow sessions client: %w", err)
	}
	if language == "" {
		language = "en-US"
	}
	return &DialogflowClient{sessions: sessions, projectID: projectID, language: language}, nil
}

func (c *DialogflowClient) Close() error {
	return c.sessions.Close()
}

func (c *DialogflowClient) DetectText(ctx context.Context, sessionID, text string) (Result, error) {
	return c.detect(ctx, sessionID, &dialogflowpb.QueryInput{
		Input: &dialogflowpb.QueryInput_Text{
			Text: &dialogflowpb.TextInput{Text: text, LanguageCode: c.language},
		},
	})
}

func (c *DialogflowClient) DetectEvent(ctx context.Context, sessionID, event string, params map[string]any) (Result, error) {
	input := &dialogflowpb.EventInput{Name: event, LanguageCode: c.language}
	if len(params) > 0 {
		s, err := structpb.NewStruct(params)
		if err != nil {
			return Result{}, fmt.Errorf("encode event parameters: %w", err)
		}
		input.Parameters = s
	}
	return c.detect(ctx, sessionID, &dialogflowpb.QueryInput{
		Input: &dialogflowpb.QueryInput_Event{Event: input},
	})
}

func (c *DialogflowClient) detect(ctx context.Context, sessionID string, input *dialogflowpb.QueryInput) (Result, error) {
	resp, err := c.sessions.DetectIntent(ctx, &dialogflowpb.DetectIntentRequest{
		Session:    sessionPath(c.projectID, sessionID),
		QueryInput: input,
	})
	if err != nil {
		return Result{}, fmt.Errorf("detect intent: %w", err)
	}
	return resultFrom(resp.GetQueryResult()), nil
}

func sessionPath(projectID, sessionID string) string {
	return fmt.Sprintf("projects/%s/agent/sessions/%s", projectID, sessionID)
}

func resultFrom(qr *dialogflowpb.QueryResult) Result {
	r := Result{
		Reply:      qr.GetFulfillmentText(),
		Intent:     qr.GetIntent().GetDisplayName(),
		Confidence: qr.GetIntentDetectionConfidence(),
	}
	if params := qr.GetParameters(); params != nil && len(params.GetFields()) > 0 {
		r.Parameters = params.AsMap()
	}
	return r
}
