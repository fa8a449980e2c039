package config

import "strings"

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

type Cors struct {
	AllowedOrigins AllowedOrigins
	AllowedMethods string
	AllowedHeaders string
}

func loadCors() Cors {
	origins := AllowedOrigins{}
	for _, o := range strings.Split(GetEnv(allowedOriginsVar, "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = nullValue{}
		}
	}
	return Cors{
		AllowedOrigins: origins,
		AllowedMethods: "GET, OPTIONS",
		AllowedHeaders: "Content-Type, Authorization",
	}
}
