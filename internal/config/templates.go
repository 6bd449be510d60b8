package config

import (
	"fmt"
	"os"
)

func Template() string {
	return peerTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(peerTemplate), 0o600)
}

const peerTemplate = `# display name sent as the sender of every message; no ':' allowed
name = "alice"
listen_addr = "0.0.0.0:5000"
max_peers = 1

# peers dialed once at startup
connect = []

# browser canvas bridge and admin HTTP; empty disables it
http_addr = "127.0.0.1:7080"
cors_origins = ["http://localhost:3000"]

connect_timeout = "5s"
write_timeout = "5s"
read_buffer_bytes = 4096
max_line_bytes = 1048576

console = true
history_file = ""
`
