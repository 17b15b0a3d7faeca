package models

// Виды писем, которые умеет отправлять sender.
const (
	EmailKindVerification = "verification"
	EmailKindReset        = "reset"
	EmailKindWelcome      = "welcome"
)

// EmailTask — сообщение для очереди уведомлений.
//
// Публикуется API-сервисом в RabbitMQ и потребляется sender-воркером.
// URL уже содержит одноразовый токен; сам токен отдельно не передается
// и нигде, кроме письма, не появляется.
type EmailTask struct {
	Kind  string `json:"kind"`
	Email string `json:"email"`
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
}
