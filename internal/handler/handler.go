package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/worker"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	translator ut.Translator
	mqChannel  *amqp.Channel
	runState   *worker.RedisRunState

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mqCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
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
		mqChannel:  mqCh,
		runState:   worker.NewRunState(rdb, cfg),

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	planner := h.RequiredRole([]domain.Role{domain.RolePlanner})

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

		r.Route("/employees", func(r chi.Router) {
			r.With(planner).Post("/", h.CreateEmployee)
			r.Get("/", h.GetAllEmployees)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.employeeInfo)
				r.Get("/", h.GetEmployee)
				r.With(h.preventOperateInitialAdmin).With(planner).Patch("/", h.UpdateEmployee)
				r.With(h.preventOperateInitialAdmin).With(planner).Delete("/", h.DeleteEmployee)
				r.With(planner).Patch("/password", h.UpdateEmployeePassword)
			})
		})

		r.Route("/roster-plans", func(r chi.Router) {
			r.With(planner).Post("/", h.CreateRosterPlan)
			r.Get("/", h.GetAllRosterPlans)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.rosterPlan)
				r.Get("/", h.GetRosterPlan)
				r.With(planner).Patch("/", h.UpdateRosterPlan)
				r.With(planner).Delete("/", h.DeleteRosterPlan)
				r.Route("/entries", func(r chi.Router) {
					r.Get("/", h.GetRosterEntries)
					r.With(planner).Put("/", h.ReplaceRosterEntries)
				})
				r.Route("/roster-result", func(r chi.Router) {
					r.Get("/", h.GetRosterResult)
					r.Get("/progress", h.GetRosterProgress)
					r.With(planner).With(h.myInfo).Post("/generate", h.GenerateRosterResult)
					r.With(planner).Post("/stop", h.StopRosterGeneration)
				})
			})
		})
	})
}
