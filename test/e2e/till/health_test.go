package till_test

import (
	"testing"

	"github.com/aussiebroadwan/till/pkg/authsdk"
)

func TestLivezEndpoint(t *testing.T) {
	client := authsdk.NewSDKClient(setupTillContainer(t))

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
}

func TestReadyzEndpoint(t *testing.T) {
	client := authsdk.NewSDKClient(setupTillContainer(t))

	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
}
