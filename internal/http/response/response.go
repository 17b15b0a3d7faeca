// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
//
// Поле Status — "success" или "error". Token и Data присутствуют при
// выпуске сессии, Action — для ответов вида verificationPending,
// Error — текст исходной ошибки (только вне боевого окружения).
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message" example:"invalid request body"`
}

const (
	// StatusSuccess — значение статуса для успешного ответа.
	StatusSuccess = "success"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "error"
)

// OK возвращает успешный Response с сообщением.
func OK(message string) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
	}
}

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusSuccess,
		Data:   data,
	}
}

// OKWithToken возвращает успешный Response с сессионным токеном и
// пользователем в data.user. Секретные поля модели не сериализуются.
func OKWithToken(token string, user any) Response {
	return Response{
		Status: StatusSuccess,
		Token:  token,
		Data:   map[string]any{"user": user},
	}
}

// OKWithAction возвращает успешный Response с указанием действия,
// ожидаемого от клиента (например, verificationPending).
func OKWithAction(action, message string) Response {
	return Response{
		Status:  StatusSuccess,
		Action:  action,
		Message: message,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{
		Status:  StatusError,
		Message: msg,
	}
}

// ErrorWithDetail возвращает Response с ошибкой; вне боевого окружения
// в поле error дополнительно попадает текст исходной ошибки.
func ErrorWithDetail(msg string, err error, prod bool) Response {
	resp := Error(msg)
	if !prod && err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// ValidationError формирует Response со статусом error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email address", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "eqfield":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s does not match %s", err.Field(), err.Param()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status:  StatusError,
		Message: strings.Join(errsMsgs, ", "),
	}
}
