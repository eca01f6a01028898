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

package config

import "fmt"

// User represents the admin HTTP API's basic-auth/JWT credential.
type User struct {
	UserName string `env:"USERNAME" toml:"username"`
	Password string `env:"PASSWORD" toml:"password"`
}

// TOML returns User's toml config string.
func (u *User) TOML() string {
	return fmt.Sprintf(`
## Admin HTTP API credential.
## Default: %s
## Env: LINDB_RUNTIME_USER_USERNAME
username = "%s"
## Default: %s
## Env: LINDB_RUNTIME_USER_PASSWORD
password = "%s"`,
		u.UserName, u.UserName,
		u.Password, u.Password,
	)
}

// NewDefaultUser returns a new default User config.
func NewDefaultUser() *User {
	return &User{
		UserName: "admin",
		Password: "admin123",
	}
}
