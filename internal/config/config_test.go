package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  user: streak
  dbname: streakzilla
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Engine.FreezeWindowDays)
	assert.Equal(t, 5, cfg.Engine.PhotoBonusPoints)
	assert.Equal(t, 100, cfg.Engine.PointsPerHeart)
	assert.Equal(t, 75, cfg.Engine.DefaultDuration)
	assert.Equal(t, "0 5 0 * * *", cfg.Scheduler.MaintenanceCron)
	assert.Equal(t, "streak:@tcp(localhost:3306)/streakzilla?charset=utf8mb4&parseTime=True&loc=UTC", cfg.Database.DSN())
}

func TestLoad_TemplatesAndPostgres(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  host: db
  port: 5432
  user: app
  password: secret
  dbname: streaks
engine:
  timezone: America/New_York
templates:
  - name: 75 Hard Plus
    mode: 75_hard_plus
    habits:
      - title: Drink a gallon of water
        category: core
        points: 0
        is_core: true
      - title: Cold shower
        category: bonus
        points: 10
        points_override: 15
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Contains(t, cfg.Database.DSN(), "sslmode=disable")
	loc, err := cfg.Engine.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())

	require.Len(t, cfg.Templates, 1)
	require.Len(t, cfg.Templates[0].Habits, 2)
	cold := cfg.Templates[0].Habits[1]
	require.NotNil(t, cold.PointsOverride)
	assert.Equal(t, 15.0, *cold.PointsOverride)
	assert.Nil(t, cold.IsCore)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("STREAKZILLA_ENGINE_FREEZE_WINDOW_DAYS", "5")
	path := writeConfig(t, "database:\n  host: localhost\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Engine.FreezeWindowDays)
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]string{
		"driver":   "database:\n  driver: oracle\n",
		"window":   "engine:\n  freeze_window_days: 0\n",
		"timezone": "engine:\n  timezone: Mars/Olympus\n",
		"storage":  "storage:\n  enabled: true\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
