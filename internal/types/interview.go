package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Interview is a set of questions for one role. Generated interviews are
// finalized once their questions are committed and never change afterwards.
type Interview struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Role       string    `json:"role"`
	Level      string    `json:"level"`
	Type       string    `json:"type"`
	Techstack  []string  `json:"techstack"`
	Questions  []string  `json:"questions"`
	Finalized  bool      `json:"finalized"`
	CoverImage string    `json:"cover_image,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FlexInt accepts both JSON numbers and numeric strings. Voice workflow tools
// send every variable as a string.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	var num int
	if err := json.Unmarshal(data, &num); err == nil {
		*n = FlexInt(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("amount must be a number or numeric string")
	}
	num, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("amount must be a number or numeric string: %w", err)
	}
	*n = FlexInt(num)
	return nil
}

// GenerateInterviewRequest is the payload posted by the voice workflow once
// it has collected the interview preferences.
type GenerateInterviewRequest struct {
	Role      string    `json:"role" validate:"required,max=200"`
	Type      string    `json:"type" validate:"required,max=100"`
	Level     string    `json:"level" validate:"required,max=100"`
	Techstack string    `json:"techstack" validate:"max=1000"`
	Amount    FlexInt   `json:"amount" validate:"min=1,max=30"`
	UserID    uuid.UUID `json:"userid" validate:"required"`
}

// Validate validates the GenerateInterviewRequest using the validator.
func (r *GenerateInterviewRequest) Validate() error {
	return validator.New().Struct(r)
}

// TechstackList splits the comma-separated techstack into trimmed, non-empty entries.
func (r *GenerateInterviewRequest) TechstackList() []string {
	var out []string
	for _, item := range strings.Split(r.Techstack, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
