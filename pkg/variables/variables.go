package variables

import (
	"log"
	"os"
	"strconv"
)

const (
	HTTP_PORT_NAME    = "HTTP_PORT"
	HTTP_PORT_DEFAULT = "5000"

	SERVER_VERSION_NAME    = "SERVER_VERSION"
	SERVER_VERSION_DEFAULT = "1.0.0"

	ICE_STUN_URLS_NAME    = "ICE_STUN_URLS"
	ICE_STUN_URLS_DEFAULT = "stun:stun.l.google.com:19302"

	ICE_TURN_URL_NAME        = "ICE_TURN_URL"
	ICE_TURN_URL_DEFAULT     = ""
	ICE_TURN_USERNAME_NAME   = "ICE_TURN_USERNAME"
	ICE_TURN_CREDENTIAL_NAME = "ICE_TURN_CREDENTIAL"
)

func Env(variableName, defaultValue string) string {
	if variable := os.Getenv(variableName); variable != "" {
		log.Printf("[%s]: %s", variableName, variable)
		return variable
	}
	return defaultValue
}

func ParseInt(value string) (int, error) {
	return strconv.Atoi(value)
}
