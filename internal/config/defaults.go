package config

var defaults = map[string]any{
	"secret":         "",
	"admin_password": "",
	"admin_auth_ttl": 7, // days
	"log_level":      "info",

	"allowed_networks": "",

	"base_url": "",
	"listen":   ":8080",

	"poll_interval": 15,

	"alert.host":     "",
	"alert.port":     25,
	"alert.username": "",
	"alert.password": "",
	"alert.from":     "noreply@example.com",
	"alert.to":       "",

	"storage.type":        "sqlite",
	"storage.sqlite.path": "./data/storage.db",
}

func Defaults() map[string]any {
	values := make(map[string]any)
	for k, v := range defaults {
		values[k] = v
	}
	return values
}
