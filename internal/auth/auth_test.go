package auth

import "testing"

func TestStaticAuthenticate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		email    string
		password string
		tryEmail string
		tryPass  string
		want     bool
	}{
		{
			name:     "configured pair matches",
			email:    "ops@example.com",
			password: "s3cret",
			tryEmail: "ops@example.com",
			tryPass:  "s3cret",
			want:     true,
		},
		{
			name:     "wrong password",
			email:    "ops@example.com",
			password: "s3cret",
			tryEmail: "ops@example.com",
			tryPass:  "guess",
			want:     false,
		},
		{
			name:     "wrong email",
			email:    "ops@example.com",
			password: "s3cret",
			tryEmail: "other@example.com",
			tryPass:  "s3cret",
			want:     false,
		},
		{
			name:     "defaults apply when unset",
			tryEmail: DefaultEmail,
			tryPass:  DefaultPassword,
			want:     true,
		},
		{
			name:     "empty attempt never passes",
			email:    "ops@example.com",
			password: "s3cret",
			want:     false,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a := NewStatic(tc.email, tc.password)
			if got := a.Authenticate(tc.tryEmail, tc.tryPass); got != tc.want {
				t.Fatalf("Authenticate(%q, %q) = %v, want %v", tc.tryEmail, tc.tryPass, got, tc.want)
			}
		})
	}
}
