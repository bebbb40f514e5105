package models

// OAuthProfile — проверенный профиль, который внешний OAuth-обмен
// передаёт в сервис. Email — ключ унификации аккаунтов между провайдерами.
type OAuthProfile struct {
	Name     string
	Email    string
	Avatar   string
	Provider Provider
}
