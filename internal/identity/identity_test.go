// SPDX-License-Identifier: MIT
package identity_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/branchkeeper/internal/credential"
	"github.com/skaphos/branchkeeper/internal/identity"
	"github.com/skaphos/branchkeeper/internal/model"
)

func userServer(body string, status int, seenAuth *string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			http.NotFound(w, r)
			return
		}
		*seenAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprint(w, body)
	}))
}

var _ = Describe("GitHubResolver", func() {
	var auth string

	It("returns login and public email", func() {
		srv := userServer(`{"login":"octo","email":"octo@example.com"}`, http.StatusOK, &auth)
		defer srv.Close()

		r := &identity.GitHubResolver{BaseURL: srv.URL}
		author, err := r.Resolve(context.Background(), "tok")
		Expect(err).NotTo(HaveOccurred())
		Expect(author).To(Equal(model.Author{Name: "octo", Email: "octo@example.com"}))
		Expect(auth).To(HaveSuffix(" tok"))
	})

	It("falls back to the noreply address when email is hidden", func() {
		srv := userServer(`{"login":"octo","email":null}`, http.StatusOK, &auth)
		defer srv.Close()

		r := &identity.GitHubResolver{BaseURL: srv.URL}
		author, err := r.Resolve(context.Background(), "tok")
		Expect(err).NotTo(HaveOccurred())
		Expect(author.Email).To(Equal(identity.NoReplyEmail))
	})

	It("wraps API failures", func() {
		srv := userServer(`{"message":"Bad credentials"}`, http.StatusUnauthorized, &auth)
		defer srv.Close()

		r := &identity.GitHubResolver{BaseURL: srv.URL}
		_, err := r.Resolve(context.Background(), "tok")
		Expect(errors.Is(err, identity.ErrNoIdentity)).To(BeTrue())
	})

	It("requires a token", func() {
		r := &identity.GitHubResolver{}
		_, err := r.Resolve(context.Background(), " ")
		Expect(err).To(MatchError(credential.ErrMissingCredential))
	})
})

var _ = Describe("StaticResolver", func() {
	It("returns the pinned author with a default email", func() {
		author, err := identity.StaticResolver{Author: model.Author{Name: "ci"}}.Resolve(context.Background(), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(author).To(Equal(model.Author{Name: "ci", Email: identity.NoReplyEmail}))
	})

	It("rejects an empty author", func() {
		_, err := identity.StaticResolver{}.Resolve(context.Background(), "")
		Expect(errors.Is(err, identity.ErrNoIdentity)).To(BeTrue())
	})
})
