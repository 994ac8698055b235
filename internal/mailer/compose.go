package mailer

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var ErrUnsupportedType = errors.New("不支持的邮件类型")

// Envelope 是队列中的邮件消息，Data 按 Type 延迟解码
type Envelope struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

type kind struct {
	subject  string
	template string
	data     func() any
}

var kinds = map[string]kind{
	domain.MailTypeCreateUser: {
		subject:  "直播排班系统 - 账户信息",
		template: "new_account_email.html",
		data:     func() any { return &domain.CreateUserMailData{} },
	},
	domain.MailTypeAltRequestCreated: {
		subject:  "直播排班系统 - 新的替班申请",
		template: "alt_request_created_email.html",
		data:     func() any { return &domain.AltRequestMailData{} },
	},
	domain.MailTypeAltRequestDecided: {
		subject:  "直播排班系统 - 替班申请处理结果",
		template: "alt_request_decided_email.html",
		data:     func() any { return &domain.AltRequestMailData{} },
	},
}

// Compose 根据消息类型渲染邮件
func Compose(from string, env Envelope) (*mail.Msg, error) {
	k, ok := kinds[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, env.Type)
	}

	data := k.data()
	if err := json.Unmarshal(env.Data, data); err != nil {
		return nil, fmt.Errorf("邮件数据解析失败: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, err
	}
	if err := msg.To(env.To); err != nil {
		return nil, err
	}
	msg.Subject(k.subject)
	if err := msg.SetBodyHTMLTemplate(templates.Lookup(k.template), data); err != nil {
		return nil, err
	}

	return msg, nil
}
