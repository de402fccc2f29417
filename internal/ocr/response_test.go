package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpaceResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		pages   int
		wantErr error
		errText string
	}{
		{
			name:  "two pages",
			body:  `{"ParsedResults":[{"ParsedText":"1st Clarinet\r\n"},{"ParsedText":"page two"}],"OCRExitCode":1,"IsErroredOnProcessing":false}`,
			want:  "1st Clarinet\npage two",
			pages: 2,
		},
		{
			name:    "error message as string",
			body:    `{"IsErroredOnProcessing":true,"ErrorMessage":"File failed validation"}`,
			wantErr: ErrOCRFailed,
			errText: "File failed validation",
		},
		{
			name:    "error message as list",
			body:    `{"IsErroredOnProcessing":true,"ErrorMessage":["Timed out","Retry later"]}`,
			wantErr: ErrOCRFailed,
			errText: "Timed out; Retry later",
		},
		{
			name:    "html error page",
			body:    `<html>502 Bad Gateway</html>`,
			wantErr: ErrNonJSONResponse,
		},
		{
			name:    "json of the wrong shape",
			body:    `{"IsErroredOnProcessing":"no"}`,
			wantErr: ErrNonJSONResponse,
		},
		{
			name:    "no text",
			body:    `{"ParsedResults":[{"ParsedText":""}],"IsErroredOnProcessing":false}`,
			wantErr: ErrOCRFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, pages, err := parseSpaceResponse([]byte(tt.body))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.errText != "" {
					assert.Contains(t, err.Error(), tt.errText)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.pages, pages)
			assert.Equal(t, tt.want, Clean(text))
		})
	}
}
