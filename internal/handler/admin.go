package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/examsys/internal/bank"
	"github.com/pavelanni/examsys/internal/handler/views"
	"github.com/pavelanni/examsys/internal/model"
)

const maxBankSize = 10 << 20

var userRoles = []model.Role{model.RoleStudent, model.RoleInstructor, model.RoleManager}

type userForm struct {
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"max=100"`
	Email     string `validate:"required,email"`
	Password  string `validate:"required,min=8"`
	Role      string `validate:"required,oneof=Student Instructor Manager"`
}

func (h *Handler) handleUsersPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, views.UsersPage(userRoles))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	form := userForm{
		FirstName: strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:  strings.TrimSpace(r.PostFormValue("last_name")),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		Password:  r.PostFormValue("password"),
		Role:      r.PostFormValue("role"),
	}
	if err := h.validate.Struct(form); err != nil {
		h.redirectFlash(w, r, "/manager/users", flashError, "InvalidForm")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		h.serverError(w, r, "/manager/users", "failed to hash password", err)
		return
	}
	_, _, err = h.store.CreatePerson(r.Context(), model.Person{
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Email:        form.Email,
		PasswordHash: string(hash),
		Role:         model.Role(form.Role),
	})
	if err != nil {
		h.serverError(w, r, "/manager/users", "failed to create user", err)
		return
	}
	h.redirectFlash(w, r, "/manager/users", flashSuccess, "UserCreated")
}

func (h *Handler) handleImportPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, views.ImportPage())
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxBankSize); err != nil {
		h.redirectFlash(w, r, "/manager/import", flashError, "InvalidForm")
		return
	}
	file, header, err := r.FormFile("bank_file")
	if err != nil {
		h.redirectFlash(w, r, "/manager/import", flashError, "InvalidForm")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBankSize))
	if err != nil {
		h.serverError(w, r, "/manager/import", "failed to read upload", err)
		return
	}

	res, err := bank.Import(r.Context(), h.store, header.Filename, data)
	switch {
	case errors.Is(err, bank.ErrUnchanged):
		h.redirectFlash(w, r, "/manager/import", flashInfo, "ImportUnchanged")
		return
	case err != nil:
		slog.Warn("question bank import failed", "filename", header.Filename, "error", err)
		h.redirectFlash(w, r, "/manager/import", flashError, "ImportFailed")
		return
	}
	slog.Info("imported question bank via upload", "filename", header.Filename,
		"courses", res.Courses, "exams", res.Exams, "questions", res.Questions)
	h.flash(w, r, flashSuccess, "ImportDone", map[string]any{
		"Courses":   res.Courses,
		"Exams":     res.Exams,
		"Questions": res.Questions,
	})
	http.Redirect(w, r, "/manager/import", http.StatusSeeOther)
}
