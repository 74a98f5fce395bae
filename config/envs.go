package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration values.
type Config struct {
	GrpcAddr string // Address the host serves gRPC on and remotes dial

	UdpHost                string // Host the UDP relay binds to
	UdpPort                int    // Port for the UDP relay, 0 disables it
	UDPBufferSize          int    // Size of the buffer for incoming UDP packets (in bytes)
	UDPHeartbeatExpiration int    // Expiration time for UDP heartbeat (in milliseconds)

	CompilerPath    string // Initial location of the external map compiler
	ModPath         string // Initial runtime mod directory
	MapName         string // Base name of the generated level
	GameDir         string // Game directory under the mod path, passed as -fs_game
	CompilerConnect string // Address handed to the compiler's -connect flag

	Workers   int // Generation workers
	QueueSize int // Pending generations before submissions are refused

	SurfaceDecodeErrors bool // Return sync decode failures to the sender
}

// Envs holds the application's configuration loaded from environment variables.
var Envs = initConfig()

// initConfig initializes and returns the application configuration.
// It loads environment variables from a .env file.
func initConfig() Config {
	// Load .env file if available
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	return Config{
		GrpcAddr: getEnv("GRPC_ADDR", "127.0.0.1:7600"),

		UdpHost:                getEnv("UDP_HOST", "0.0.0.0"),
		UdpPort:                getEnvAsInt("UDP_PORT", 7601),
		UDPBufferSize:          getEnvAsInt("UDP_BUFFER_SIZE", 2048),
		UDPHeartbeatExpiration: getEnvAsInt("UDP_HEARTBEAT_EXPIRATION", 3000),

		CompilerPath:    getEnv("COMPILER_PATH", "/"),
		ModPath:         getEnv("MOD_PATH", "/"),
		MapName:         getEnv("MAP_NAME", "mp_maze"),
		GameDir:         getEnv("GAME_DIR", "Titanfall2"),
		CompilerConnect: getEnv("COMPILER_CONNECT", "127.0.0.1:39000"),

		Workers:   getEnvAsInt("WORKERS", 2),
		QueueSize: getEnvAsInt("QUEUE_SIZE", 8),

		SurfaceDecodeErrors: getEnvAsBool("SURFACE_DECODE_ERRORS", false),
	}
}

// getEnv retrieves the value of an environment variable or returns fallback if not set.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves the value of an environment variable as an integer or logs a fatal error if it cannot be parsed.
func getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("%s[APP]%s %s[FATAL]%s Environment variable %s must be an integer: %v", ColorGreen, ColorReset, ColorRed, ColorReset, key, err)
	}
	return value
}

// getEnvAsBool retrieves the value of an environment variable as a boolean or logs a fatal error if it cannot be parsed.
func getEnvAsBool(key string, fallback bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Fatalf("%s[APP]%s %s[FATAL]%s Environment variable %s must be a boolean: %v", ColorGreen, ColorReset, ColorRed, ColorReset, key, err)
	}
	return value
}
