package companiontests

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/storybuddy/companion-contract-tests/framework/harness"
	"github.com/storybuddy/companion-contract-tests/framework/ldtest"
	"github.com/storybuddy/companion-contract-tests/servicedef"
)

func childProfile() servicedef.ProfileParams {
	return servicedef.ProfileParams{
		Name:      "Mia",
		Age:       ldvalue.NewOptionalInt(6),
		Language:  "en",
		Interests: []string{"animals", "space", "drawing"},
	}
}

func DoProfileTests(t *ldtest.T) {
	t.Run("create profile", func(t *ldtest.T) {
		resp := NewSession(t).CreateProfile(t, childProfile())
		requireStatus(t, resp, http.StatusOK, http.StatusCreated)
	})

	t.Run("fetch created profile", func(t *ldtest.T) {
		s := NewSession(t)
		requireStatus(t, s.CreateProfile(t, childProfile()), http.StatusOK, http.StatusCreated)

		resp := s.GetProfile(t)
		requireSuccess(t, resp)
		profile := requireJSON[servicedef.ProfileResponse](t, resp)
		assert.Equal(t, childProfile().Name, profile.DisplayName())
	})

	t.Run("missing name is rejected or handled gracefully", func(t *ldtest.T) {
		s := NewSession(t)
		resp := s.CreateProfile(t, servicedef.ProfileParams{Language: "en"})
		assertHandledGracefully(t, resp)
		if resp.IsSuccess() {
			assertErrorEnvelope(t, resp)
		}
	})
}

// assertErrorEnvelope checks that a 2xx response nevertheless tells the client that its input
// was not accepted.
func assertErrorEnvelope(t *ldtest.T, resp harness.Response) {
	body := requireJSON[servicedef.ErrorResponse](t, resp)
	rejected := body.Error != "" || !body.Detail.IsNull() ||
		(body.Status != "" && !harness.IsHealthyStatus(body.Status) && body.Status != "success")
	assert.True(t, rejected, "invalid input was accepted without any error indication: %s",
		resp.BodySnippet(maxBodyInFailure))
}
