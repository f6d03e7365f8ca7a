package common

import (
	"crypto/sha256"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"

	NA = "N/A"
)

var snowflakeNode *snowflake.Node

func init() {
	rand.Seed(time.Now().UnixNano())
	var err error
	snowflakeNode, err = snowflake.NewNode(rand.Int63n(1023))
	if err != nil {
		snowflakeNode, _ = snowflake.NewNode(1)
	}
}

// UUIDint64 returns a snowflake int64 id.
func UUIDint64() int64 {
	return snowflakeNode.Generate().Int64()
}

// UUID returns a snowflake id in base36 string form, used for
// human-readable reference number suffixes.
func UUID() string {
	return snowflakeNode.Generate().Base36()
}

// Sha256HashWithSalt computes a salted sha256 hex digest.
func Sha256HashWithSalt(src string, salt string) string {
	h := sha256.New()
	h.Write([]byte(src + salt))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// GetSecretSalt reads the process-level secret salt, with a development default.
func GetSecretSalt() string {
	salt := os.Getenv("OPSLEDGER_SECRET_SALT")
	if salt == "" {
		salt = "opsledger-secret"
	}
	return salt
}

// FileExists checks whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
