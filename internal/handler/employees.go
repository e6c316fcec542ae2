package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-roster/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) GetAllEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.repository.GetAllEmployees()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取员工列表成功", employees)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		FullName string `json:"fullName" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Role     string `json:"role" validate:"required,oneof=员工 排班员"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 生成随机密码
	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	employee := &domain.Employee{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         domain.Role(req.Role),
	}

	if err := h.repository.CreateEmployee(employee); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "users_username_key":
				h.badRequest(w, r, errors.New("用户名已存在"))
			case "users_email_key":
				h.badRequest(w, r, errors.New("邮箱已存在"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 通过邮件将初始密码发送给员工
	mailMessage := domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   employee.Email,
		Data: domain.CreateUserMailData{
			FullName: req.FullName,
			Username: req.Username,
			Password: password,
		},
	}
	if err := h.publish(h.config.RabbitMQ.EmailQueue, mailMessage); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "员工创建成功", employee)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	employee := r.Context().Value(EmployeeInfoCtx).(*domain.Employee)
	h.successResponse(w, r, "获取员工信息成功", employee)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName *string `json:"fullName" validate:"omitempty,min=1"`
		Email    *string `json:"email" validate:"omitempty,email"`
		Role     *string `json:"role" validate:"omitempty,oneof=员工 排班员"`
		IsActive *bool   `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	employee := r.Context().Value(EmployeeInfoCtx).(*domain.Employee)

	if req.FullName != nil {
		employee.FullName = *req.FullName
	}
	if req.Email != nil {
		employee.Email = *req.Email
	}
	if req.Role != nil {
		employee.Role = domain.Role(*req.Role)
	}
	if req.IsActive != nil {
		employee.IsActive = *req.IsActive
	}

	if err := h.repository.UpdateEmployee(employee); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "users_email_key":
				h.badRequest(w, r, errors.New("邮箱已存在"))
			default:
				h.internalServerError(w, r, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "更新员工信息失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新员工信息成功", employee)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	employee := r.Context().Value(EmployeeInfoCtx).(*domain.Employee)

	if err := h.repository.DeleteEmployee(employee.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除员工成功", nil)
}

func (h *Handler) UpdateEmployeePassword(w http.ResponseWriter, r *http.Request) {
	employee := r.Context().Value(EmployeeInfoCtx).(*domain.Employee)

	var req struct {
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	employee.PasswordHash = string(hashedPassword)
	if err := h.repository.UpdateEmployee(employee); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "修改密码成功", nil)
}
