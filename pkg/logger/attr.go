package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// TenantID records the tenant identifier under the key "tenant_id".
func TenantID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("tenant_id", id)
}

// Schema records the bound database schema under the key "schema".
func Schema(name string) slog.Attr {
	return slog.String("schema", name)
}

// Account records the acting account email under the key "account".
func Account(email string) slog.Attr {
	return slog.String("account", email)
}

// Permissions records a permission set under the key "permissions".
func Permissions(names []string) slog.Attr {
	return slog.Any("permissions", names)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}
