package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pirguard/pirguard/internal/pirguard/keypad"
)

type Config struct {
	Role string // "master" | "slave" | "sim"

	HTTPAddr string
	GRPCAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/pirguard.db"
	Store  string // "sqlite" | "memory"

	// Bus
	BusAddress     uint8 // 7-bit slave address
	BusPollLimit   int
	BusPollBackoff time.Duration

	CountdownSeconds int
	Code             string
	CodeMatch        string // "strict" | "prefix"

	// Audit retention
	EventRetentionDays int // 0 = keep forever
	PruneIntervalHours int // how often the pruner runs (default 6)

	// Board
	Pins     string // "sim" | "periph"
	PinNames PinNames
	I2CBus   string
	LCDAddr  uint16

	ConsolePort string
	ConsoleBaud int
}

// PinNames are periph.io pin names, used when Pins is "periph".
type PinNames struct {
	PIR    string
	Rearm  string
	Alarm  string
	Link   string
	Buzzer string
	Wait   string
}

func FromEnv() Config {
	role := strings.ToLower(getenvDefault("PIRGUARD_ROLE", "sim"))
	if role != "master" && role != "slave" && role != "sim" {
		role = "sim"
	}

	env := strings.ToLower(getenvDefault("PIRGUARD_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	storeKind := strings.ToLower(getenvDefault("PIRGUARD_STORE", "sqlite"))
	if storeKind != "memory" {
		storeKind = "sqlite"
	}

	busAddr := getenvInt("PIRGUARD_BUS_ADDRESS", 0x55)
	if busAddr < 0x08 || busAddr > 0x77 {
		// outside the 7-bit range usable by a target
		busAddr = 0x55
	}

	code := getenvDefault("PIRGUARD_CODE", "0423")
	// the keypad only ever submits CodeLength digits
	if len(code) != keypad.CodeLength || !allDigits(code) {
		code = "0423"
	}

	match := strings.ToLower(getenvDefault("PIRGUARD_CODE_MATCH", "strict"))
	if match != "prefix" {
		match = "strict"
	}

	pins := strings.ToLower(getenvDefault("PIRGUARD_PINS", "sim"))
	if pins != "periph" {
		pins = "sim"
	}

	return Config{
		Role:     role,
		HTTPAddr: getenvDefault("PIRGUARD_HTTP_ADDR", ":8080"),
		GRPCAddr: getenvDefault("PIRGUARD_GRPC_ADDR", ":9090"),

		Env:    env,
		DBPath: getenvDefault("PIRGUARD_DB_PATH", "./data/pirguard.db"),
		Store:  storeKind,

		BusAddress:     uint8(busAddr),
		BusPollLimit:   getenvInt("PIRGUARD_BUS_POLL_LIMIT", 20000),
		BusPollBackoff: time.Duration(getenvInt("PIRGUARD_BUS_POLL_BACKOFF_US", 20)) * time.Microsecond,

		CountdownSeconds: getenvInt("PIRGUARD_COUNTDOWN_SECONDS", 10),
		Code:             code,
		CodeMatch:        match,

		EventRetentionDays: getenvInt("PIRGUARD_EVENT_RETENTION_DAYS", 30),
		PruneIntervalHours: getenvInt("PIRGUARD_PRUNE_INTERVAL_HOURS", 6),

		Pins: pins,
		PinNames: PinNames{
			PIR:    getenvDefault("PIRGUARD_PIN_PIR", "GPIO17"),
			Rearm:  getenvDefault("PIRGUARD_PIN_REARM", "GPIO27"),
			Alarm:  getenvDefault("PIRGUARD_PIN_ALARM", "GPIO22"),
			Link:   getenvDefault("PIRGUARD_PIN_LINK", "GPIO23"),
			Buzzer: getenvDefault("PIRGUARD_PIN_BUZZER", "GPIO18"),
			Wait:   getenvDefault("PIRGUARD_PIN_WAIT", "GPIO24"),
		},
		I2CBus:  os.Getenv("PIRGUARD_I2C_BUS"),
		LCDAddr: uint16(getenvInt("PIRGUARD_LCD_ADDR", 0x27)),

		ConsolePort: strings.TrimSpace(os.Getenv("PIRGUARD_CONSOLE_PORT")),
		ConsoleBaud: getenvInt("PIRGUARD_CONSOLE_BAUD", 9600),
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// getenvInt accepts decimal, or hex with a 0x prefix.
func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 0, 64)
	if err != nil || n < 0 {
		return def
	}
	return int(n)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
