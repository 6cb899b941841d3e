package sendmatchalert

import (
	"time"

	"fundmatch-workers/internal/common/logger"
)

type Input struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	PartnerName string `json:"partnerName"`
	MatchID     string `json:"matchId"`
	Score       int    `json:"score"`
	Quality     string `json:"quality,omitempty"`
	Priority    bool   `json:"priority,omitempty"`
	ChatRoomID  string `json:"chatRoomId,omitempty"`
}

type Output struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	MessageID string    `json:"messageId,omitempty"`
	Channels  []string  `json:"channels,omitempty"`
	SentAt    time.Time `json:"sentAt,omitempty"`
}

type ServiceDependencies struct {
	Logger logger.Logger
	Email  EmailSender
	SMS    SMSSender
}
