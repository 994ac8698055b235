package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/config"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/domain"
	"github.com/sysu-ecnc-dev/livestream-ops/backend/internal/repository"
)

// MailPublisher 把邮件投递到队列，由 mailer.Publisher 实现
type MailPublisher interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	translator ut.Translator
	mailer     MailPublisher

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailer MailPublisher) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		mailer:     mailer,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	managers := h.RequiredRole(domain.RoleAdmin, domain.RoleLeader)
	admin := h.RequiredRole(domain.RoleAdmin)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Get("/timeline-settings", h.GetTimelineSettings)

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.SearchEmployees) // 选择负责人和替班人时都需要查询员工
			r.With(admin).Post("/", h.CreateEmployee)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetEmployee)
				r.With(admin, h.preventOperateInitialAdmin).Patch("/", h.UpdateEmployee)
			})
		})

		r.Route("/channels", func(r chi.Router) {
			r.Get("/", h.GetAllChannels)
			r.With(admin).Post("/", h.CreateChannel)
		})

		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.GetPeriods)
			r.With(managers).Post("/", h.CreatePeriod)
		})

		r.Route("/livestreams", func(r chi.Router) {
			r.Get("/", h.GetLivestreams)
			r.Group(func(r chi.Router) {
				r.Use(managers)
				r.Post("/week-range", h.CreateWeekRange)
				r.Post("/sync", h.SyncWeek)
				r.Post("/fix", h.FixWeek)
				r.Post("/auto-assign", h.AutoAssign)
			})
		})

		r.Route("/snapshots", func(r chi.Router) {
			r.With(managers).Post("/", h.CreateSnapshot)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.snapshot)
				r.With(managers).Put("/assignee", h.UpdateSnapshotAssignee)
				r.With(managers).Patch("/time", h.UpdateSnapshotTime)
				r.With(managers).Put("/alt", h.UpdateSnapshotAlt)
				r.Patch("/report", h.UpdateSnapshotReport) // 负责人自己也可以填写
				r.With(managers).Delete("/", h.DeleteSnapshot)
			})
		})

		r.Route("/alt-requests", func(r chi.Router) {
			r.With(h.myInfo, h.preventInactive).Post("/", h.CreateAltRequest)
			r.Get("/", h.GetAltRequests)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.altRequest)
				r.Get("/", h.GetAltRequest)
				r.Delete("/", h.DeleteAltRequest) // 申请人可以撤回待处理的申请
				r.With(managers).Post("/accept", h.AcceptAltRequest)
				r.With(managers).Post("/reject", h.RejectAltRequest)
			})
		})
	})
}
