package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                    "/",
		"/metrics":                            "/metrics",
		"/v1/jobs":                            "/v1/jobs",
		"/v1/jobs/my-jobs":                    "/v1/jobs/my-jobs",
		"/v1/jobs/01J3ABC":                    "/v1/jobs/:id",
		"/v1/jobs/01J3ABC?x=1":                "/v1/jobs/:id",
		"/v1/applications/apply":              "/v1/applications/apply",
		"/v1/applications/my-applications":    "/v1/applications/my-applications",
		"/v1/applications/employer":           "/v1/applications/employer",
		"/v1/applications/01J3ABC/status":     "/v1/applications/:id/status",
		"/v1/applications/01J3ABC/interviews": "/v1/applications/:id/interviews",
		"/v1/applications/01J3ABC/schedule-interview": "/v1/applications/:id/schedule-interview",
		"/v1/interviews/upcoming":                     "/v1/interviews/upcoming",
		"/v1/interviews/01J3ABC":                      "/v1/interviews/:id",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
