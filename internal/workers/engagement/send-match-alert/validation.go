package sendmatchalert

import "fundmatch-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId", "email", "partnerName", "matchId"},
		Properties: map[string]validation.Property{
			"userId": {
				Type:        "string",
				Description: "Recipient user identifier",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(64),
			},
			"email": {
				Type:        "string",
				Description: "Recipient email address",
				MinLength:   intPtr(5),
				MaxLength:   intPtr(255),
			},
			"phone": {
				Type:        "string",
				Description: "Recipient phone number for SMS alerts (optional)",
				MaxLength:   intPtr(32),
			},
			"partnerName": {
				Type:        "string",
				Description: "Display name of the matched party",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(255),
			},
			"matchId": {
				Type:        "string",
				Description: "Match record identifier",
				MinLength:   intPtr(1),
				MaxLength:   intPtr(64),
			},
			"score": {
				Type:        "number",
				Description: "Compatibility score of the match",
				Minimum:     floatPtr(0),
				Maximum:     floatPtr(100),
			},
			"quality": {
				Type:        "string",
				Description: "Match quality band",
				Enum:        []string{"LOW", "MEDIUM", "HIGH"},
			},
			"priority": {
				Type:        "boolean",
				Description: "Whether the match came from a super like",
			},
			"chatRoomId": {
				Type:        "string",
				Description: "Chat room opened for the match (optional)",
				MaxLength:   intPtr(64),
			},
		},
		AdditionalProperties: false,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"success": {
				Type:        "boolean",
				Description: "Whether the alert was delivered",
			},
			"message": {
				Type:        "string",
				Description: "Result message",
			},
			"messageId": {
				Type:        "string",
				Description: "Provider message identifier",
			},
			"channels": {
				Type:        "array",
				Description: "Channels the alert went out on",
			},
			"sentAt": {
				Type:        "string",
				Description: "Timestamp when the alert was sent",
			},
		},
		AdditionalProperties: false,
	}
}

func intPtr(i int) *int {
	return &i
}

func floatPtr(f float64) *float64 {
	return &f
}
