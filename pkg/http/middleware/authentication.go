// Licensed to LinDB under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. LinDB licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package middleware guards the admin HTTP API's /api/v1 routes, the
// read-only state routes and the set-max-threads route alike, behind a
// bearer JWT holding the configured admin credential.
package middleware

import (
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"

	"github.com/lindb/threadpool/config"
)

const bearerPrefix = "Bearer "

var signingKey = []byte("lindb-threadpool-runtime")

// claim is the JWT claim carrying the admin credential.
type claim struct {
	jwt.StandardClaims
	UserName string `json:"username"`
	Password string `json:"password"`
}

// Authentication validates bearer tokens against one configured admin
// credential.
type Authentication struct {
	user config.User
}

// NewAuthentication creates an Authentication validating against user.
func NewAuthentication(user config.User) *Authentication {
	return &Authentication{user: user}
}

// GenerateToken signs a bearer token encoding user's credential, for use
// by admin clients authenticating against Authentication.Validate.
func GenerateToken(user config.User) (string, error) {
	token, err := generateToken(user)
	if err != nil {
		return "", err
	}
	return bearerPrefix + token, nil
}

// generateToken signs a token encoding user's credential.
func generateToken(user config.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claim{
		UserName: user.UserName,
		Password: user.Password,
	})
	return token.SignedString(signingKey)
}

// parseToken decodes the bearer header into a claim, or returns nil if
// the token is missing, malformed, or improperly signed.
func parseToken(header string, _ config.User) *claim {
	tokenString := strings.TrimPrefix(header, bearerPrefix)
	if tokenString == "" {
		return nil
	}
	c := &claim{}
	_, err := jwt.ParseWithClaims(tokenString, c, func(_ *jwt.Token) (interface{}, error) {
		return signingKey, nil
	})
	if err != nil {
		return nil
	}
	return c
}

// Validate wraps handler, rejecting requests whose bearer token does
// not decode to the configured admin credential.
func (a *Authentication) Validate(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := parseToken(r.Header.Get("Authorization"), a.user)
		if c == nil || c.UserName != a.user.UserName || c.Password != a.user.Password {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
