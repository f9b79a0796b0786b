package redisx

import "fmt"

const ns = "tixgo:v1"

func KeyDeploymentShows(deployment string) string {
	return fmt.Sprintf("%s:deployment:%s:shows", ns, deployment)
}

func KeyDeploymentShow(deployment, showKey string) string {
	return fmt.Sprintf("%s:deployment:%s:show:%s", ns, deployment, showKey)
}

func KeyDeploymentMetadata(deployment string) string {
	return fmt.Sprintf("%s:deployment:%s:metadata", ns, deployment)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdemPurchase(deployment, buyer, idemKey string) string {
	return fmt.Sprintf("%s:idem:purchases:%s:%s:%s", ns, deployment, buyer, idemKey)
}

func ChannelShowsChanged() string {
	return ns + ":shows:changed"
}
