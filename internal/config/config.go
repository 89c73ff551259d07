package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects everything the server reads from the environment.
// godotenv loads a local .env in main before FromEnv runs.
type Config struct {
	Addr   string
	AppEnv string // "dev" | "prod"

	GridSize    int
	TotalRounds int
	TurnTime    time.Duration
	MaxPlayers  int
	MinPlayers  int

	RefillPolicy string // "gravity" | "random"
	ComboPolicy  string // "bonus" | "total"

	OracleURL     string
	OracleTimeout time.Duration
	WordsFile     string

	JWTSecret string
}

func FromEnv() Config {
	return Config{
		Addr:   getString("ADDR", ":8080"),
		AppEnv: getString("APP_ENV", "dev"),

		GridSize:    getInt("GRID_SIZE", 4),
		TotalRounds: getInt("TOTAL_ROUNDS", 5),
		TurnTime:    time.Duration(getInt("TURN_TIME_MS", 15000)) * time.Millisecond,
		MaxPlayers:  getInt("MAX_PLAYERS", 4),
		MinPlayers:  getInt("MIN_PLAYERS", 2),

		RefillPolicy: getString("REFILL_POLICY", "gravity"),
		ComboPolicy:  getString("COMBO_POLICY", "bonus"),

		OracleURL:     getString("ORACLE_URL", ""),
		OracleTimeout: time.Duration(getInt("ORACLE_TIMEOUT_MS", 5000)) * time.Millisecond,
		WordsFile:     getString("WORDS_FILE", ""),

		JWTSecret: getString("JWT_SECRET", ""),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
