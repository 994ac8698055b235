package mailer

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
)

func envelope(t *testing.T, msg domain.MailMessage) Envelope {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestComposeAltRequestDecided(t *testing.T) {
	env := envelope(t, domain.MailMessage{
		Type: domain.MailTypeAltRequestDecided,
		To:   "zhangsan@example.com",
		Data: domain.AltRequestMailData{
			FullName:  "张三",
			Date:      "2026-10-12",
			TimeRange: "19:00-21:00",
			Status:    "已同意",
			AltName:   "李四",
		},
	})

	msg, err := Compose("noreply@example.com", env)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	_, err = msg.WriteTo(buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "zhangsan@example.com")
}

func TestComposeTemplatesRender(t *testing.T) {
	for name, k := range kinds {
		tmpl := templates.Lookup(k.template)
		require.NotNil(t, tmpl, name)

		buf := &bytes.Buffer{}
		require.NoError(t, tmpl.Execute(buf, k.data()), name)
	}
}

func TestComposeRejectsUnknownType(t *testing.T) {
	_, err := Compose("noreply@example.com", Envelope{Type: "reset_password", To: "a@example.com", Data: []byte(`{}`)})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
