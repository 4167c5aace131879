package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings keeps process-level options read from the environment.
// config.json and rpc.json hold the run parameters themselves.
type Settings struct {
	ConfigFile       string
	RPCFile          string
	HistoryFile      string
	RPCURL           string // overrides the chain target endpoint when set
	CyclePause       time.Duration
	HistoryRetention time.Duration
	LogLevel         string
}

// Load reads settings from environment supporting both UPPER_CASE and lower_case keys.
func Load() Settings {
	get := func(keys []string, def string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				return v
			}
		}
		return def
	}
	getInt := func(keys []string, def int) int {
		s := get(keys, "")
		if s == "" {
			return def
		}
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			return n
		}
		return def
	}

	st := Settings{}
	st.ConfigFile = get([]string{"config_file", "CONFIG_FILE"}, "config.json")
	st.RPCFile = get([]string{"rpc_file", "RPC_FILE"}, "rpc.json")
	st.HistoryFile = get([]string{"history_file", "HISTORY_FILE"}, "transaction_log.json")
	st.RPCURL = get([]string{"rpc_url", "RPC_URL"}, "")
	st.CyclePause = time.Duration(getInt([]string{"cycle_pause_hours", "CYCLE_PAUSE_HOURS"}, 23)) * time.Hour
	st.HistoryRetention = time.Duration(getInt([]string{"history_retention_days", "HISTORY_RETENTION_DAYS"}, 30)) * 24 * time.Hour
	st.LogLevel = strings.ToLower(get([]string{"log_level", "LOG_LEVEL"}, "info"))
	return st
}
