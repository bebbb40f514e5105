// redact — хелперы для безопасного логирования чувствительных значений.
// Секреты (пароли, токены) в логи не попадают никогда, email — в усечённом виде.
package redact

import "strings"

// Email возвращает усечённый email вида "us***@example.com".
func Email(s string) string {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "***"
	}

	local, domain := parts[0], parts[1]
	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Phone оставляет только последние две цифры номера.
func Phone(s string) string {
	if len(s) < 2 {
		return "***"
	}

	return "***" + s[len(s)-2:]
}

func Token() string    { return "[REDACTED_TOKEN]" }
func Password() string { return "[REDACTED_PASSWORD]" }
