// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
)

// applyEnv overlays RENDITIOND_* variables onto cfg. Environment wins over
// the file, matching how the daemon is deployed in containers.
func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("RENDITIOND_MEDIA_ROOT", &cfg.MediaRoot)
	setString("RENDITIOND_DB_PATH", &cfg.DBPath)
	setString("RENDITIOND_LISTEN", &cfg.Listen)
	setInt("RENDITIOND_WORKERS", &cfg.Workers)
	setString("RENDITIOND_LOG_LEVEL", &cfg.LogLevel)
	setString("RENDITIOND_FFMPEG", &cfg.FFmpegBin)
	setString("RENDITIOND_FFPROBE", &cfg.FFprobeBin)
	setString("RENDITIOND_REDIS_ADDR", &cfg.Redis.Addr)
	setString("RENDITIOND_REDIS_PASSWORD", &cfg.Redis.Password)
	setInt("RENDITIOND_REDIS_DB", &cfg.Redis.DB)
	setInt("RENDITIOND_TRANSCODE_TIMEOUT_S", &cfg.TranscodeTimeoutSeconds)
	setInt("RENDITIOND_THUMBNAIL_TIMEOUT_S", &cfg.ThumbnailTimeoutSeconds)
}
