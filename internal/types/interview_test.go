package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexInt_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    FlexInt
		wantErr bool
	}{
		{name: "number", input: `5`, want: 5},
		{name: "numeric string", input: `"7"`, want: 7},
		{name: "padded string", input: `" 3 "`, want: 3},
		{name: "word", input: `"five"`, wantErr: true},
		{name: "object", input: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n FlexInt
			err := json.Unmarshal([]byte(tt.input), &n)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestGenerateInterviewRequest_Decode(t *testing.T) {
	userID := uuid.New()
	body := `{"role":"Frontend Developer","type":"technical","level":"junior","techstack":"React, TypeScript,, Next.js ","amount":"3","userid":"` + userID.String() + `"}`

	var req GenerateInterviewRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.NoError(t, req.Validate())

	assert.Equal(t, userID, req.UserID)
	assert.Equal(t, FlexInt(3), req.Amount)
	assert.Equal(t, []string{"React", "TypeScript", "Next.js"}, req.TechstackList())
}

func TestGenerateInterviewRequest_Validate(t *testing.T) {
	base := func() GenerateInterviewRequest {
		return GenerateInterviewRequest{
			Role: "Backend Engineer", Type: "mixed", Level: "senior",
			Techstack: "Go", Amount: 5, UserID: uuid.New(),
		}
	}

	ok := base()
	assert.NoError(t, ok.Validate())

	zero := base()
	zero.Amount = 0
	assert.Error(t, zero.Validate())

	tooMany := base()
	tooMany.Amount = 31
	assert.Error(t, tooMany.Validate())

	noUser := base()
	noUser.UserID = uuid.Nil
	assert.Error(t, noUser.Validate())

	noRole := base()
	noRole.Role = ""
	assert.Error(t, noRole.Validate())
}

func TestTechstackList_Empty(t *testing.T) {
	req := GenerateInterviewRequest{Techstack: " , "}
	assert.Empty(t, req.TechstackList())
}
