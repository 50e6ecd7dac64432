package iceconfig

import (
	"strings"

	webrtc "github.com/pion/webrtc/v4"
	"github.com/v6meet/signaling-server/pkg/variables"
)

// Servers builds the ICE server list handed to clients on connect. STUN urls
// come comma separated; a TURN entry is added only when a url is configured.
func Servers() []webrtc.ICEServer {
	var servers []webrtc.ICEServer

	stunURLs := variables.Env(variables.ICE_STUN_URLS_NAME, variables.ICE_STUN_URLS_DEFAULT)
	if stunURLs != "" {
		var urls []string
		for _, u := range strings.Split(stunURLs, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		if len(urls) > 0 {
			servers = append(servers, webrtc.ICEServer{URLs: urls})
		}
	}

	if turnURL := variables.Env(variables.ICE_TURN_URL_NAME, variables.ICE_TURN_URL_DEFAULT); turnURL != "" {
		servers = append(servers, webrtc.ICEServer{
			URLs:       []string{turnURL},
			Username:   variables.Env(variables.ICE_TURN_USERNAME_NAME, ""),
			Credential: variables.Env(variables.ICE_TURN_CREDENTIAL_NAME, ""),
		})
	}

	return servers
}
