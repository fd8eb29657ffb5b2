package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GYMCRM_API_BASE_URL", "https://crm.example.com/api")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Env != "development" || c.Addr != ":8080" || c.DBPath != "gymcrm.db" {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.API.Timeout != 10*time.Second || c.Schedule.JobTimeout != 5*time.Minute || c.SlowQuery != 50*time.Millisecond {
		t.Errorf("durations: api %v job %v slow query %v", c.API.Timeout, c.Schedule.JobTimeout, c.SlowQuery)
	}
	if c.Email.Provider != "noop" || c.HTTP.RateLimit != 10 || c.Email.SMTP.Port != 587 {
		t.Errorf("unexpected defaults: %+v", c)
	}
	loc, err := c.Location()
	if err != nil || loc.String() != "America/Argentina/Buenos_Aires" {
		t.Errorf("Location() = %v, %v", loc, err)
	}
	if c.CSRFKeyBytes() != nil {
		t.Error("CSRFKeyBytes should be nil when unset")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GYMCRM_API_BASE_URL", "https://crm.example.com/api")
	t.Setenv("GYMCRM_API_TIMEOUT", "3s")
	t.Setenv("GYMCRM_ENV", "production")
	t.Setenv("GYMCRM_HTTP_CSRF_KEY", strings.Repeat("ab", 32))
	t.Setenv("GYMCRM_HTTP_TRUSTED_ORIGINS", "crm.example.com,admin.example.com")
	t.Setenv("GYMCRM_EMAIL_PROVIDER", "resend")
	t.Setenv("GYMCRM_EMAIL_RESEND_KEY", "re_123")
	t.Setenv("GYMCRM_EMAIL_FROM", "Gimnasio <no-reply@example.com>")
	t.Setenv("GYMCRM_SCHEDULE_REMINDERS", "30 8 * * 1-5")
	t.Setenv("GYMCRM_SLOW_QUERY", "250ms")

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !c.IsProduction() || c.API.Timeout != 3*time.Second || c.SlowQuery != 250*time.Millisecond {
		t.Errorf("env/timeouts not applied: %+v", c)
	}
	if len(c.CSRFKeyBytes()) != 32 {
		t.Errorf("CSRFKeyBytes has %d bytes, want 32", len(c.CSRFKeyBytes()))
	}
	if len(c.HTTP.TrustedOrigins) != 2 || c.HTTP.TrustedOrigins[1] != "admin.example.com" {
		t.Errorf("TrustedOrigins = %v", c.HTTP.TrustedOrigins)
	}
	if c.Email.ResendKey != "re_123" || c.Schedule.Reminders != "30 8 * * 1-5" {
		t.Errorf("email/schedule not applied: %+v", c)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "gymcrm.yaml", `
timezone: UTC
api:
  base_url: https://file.example.com
  token: secret
email:
  provider: smtp
  from: gym@example.com
  smtp:
    host: smtp.example.com
    port: 2525
`)
	t.Setenv("GYMCRM_API_TOKEN", "from-env")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.API.BaseURL != "https://file.example.com" || c.Timezone != "UTC" {
		t.Errorf("file values not applied: %+v", c)
	}
	if c.API.Token != "from-env" {
		t.Errorf("Token = %q, environment should win over the file", c.API.Token)
	}
	if c.Email.SMTP.Host != "smtp.example.com" || c.Email.SMTP.Port != 2525 {
		t.Errorf("smtp = %+v", c.Email.SMTP)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for a missing config file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing base url", map[string]string{}, "BaseURL"},
		{"bad base url", map[string]string{"GYMCRM_API_BASE_URL": "not a url"}, "BaseURL"},
		{"unknown env", map[string]string{"GYMCRM_ENV": "staging"}, "Env"},
		{"bad timezone", map[string]string{"GYMCRM_TIMEZONE": "Mars/Olympus"}, "Timezone"},
		{"short csrf key", map[string]string{"GYMCRM_HTTP_CSRF_KEY": "abcd"}, "CSRFKey"},
		{"bad cron", map[string]string{"GYMCRM_SCHEDULE_SYNC": "every now and then"}, "cronspec"},
		{"unknown provider", map[string]string{"GYMCRM_EMAIL_PROVIDER": "pigeon"}, "Provider"},
		{"resend without key", map[string]string{"GYMCRM_EMAIL_PROVIDER": "resend", "GYMCRM_EMAIL_FROM": "a@b.co"}, "ResendKey"},
		{"smtp without host", map[string]string{"GYMCRM_EMAIL_PROVIDER": "smtp", "GYMCRM_EMAIL_FROM": "a@b.co"}, "smtp.host"},
		{"zero rate limit", map[string]string{"GYMCRM_HTTP_RATE_LIMIT": "0"}, "RateLimit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := tt.env["GYMCRM_API_BASE_URL"]; !ok && tt.name != "missing base url" {
				t.Setenv("GYMCRM_API_BASE_URL", "https://crm.example.com")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "GYMCRM_DOTENV_PROBE"
	path := writeFile(t, ".env", key+"=from-file\n")
	t.Cleanup(func() { os.Unsetenv(key) })

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Errorf("%s = %q, want from-file", key, got)
	}

	t.Setenv(key, "from-env")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv(key); got != "from-env" {
		t.Errorf("existing variable overwritten: %q", got)
	}
}
