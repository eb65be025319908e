package menus

import (
	"context"
	"fmt"
	"strings"
	"sync"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-pagebuilder/internal/domain"
)

// HrefResolver turns a linkable reference into a public href.
type HrefResolver interface {
	Href(ctx context.Context, kind domain.LinkableType, slug string) (string, error)
}

// PathResolver builds hrefs without a route manager: /{slug} for pages and
// /posts/{slug} for posts.
type PathResolver struct{}

func (PathResolver) Href(_ context.Context, kind domain.LinkableType, slug string) (string, error) {
	return fallbackHref(kind, slug), nil
}

func fallbackHref(kind domain.LinkableType, slug string) string {
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug == "" {
		return ""
	}
	if kind == domain.LinkPost {
		return "/posts/" + slug
	}
	return "/" + slug
}

// URLKitResolverOptions configures the go-urlkit backed resolver.
type URLKitResolverOptions struct {
	Manager   *urlkit.RouteManager
	Group     string
	PageRoute string
	PostRoute string
	SlugParam string
}

// URLKitResolver resolves linkable hrefs through a go-urlkit RouteManager.
// Kinds without a route, and routes that fail to build, use the path
// fallback.
type URLKitResolver struct {
	manager   *urlkit.RouteManager
	group     string
	routes    map[domain.LinkableType]string
	slugParam string

	groupCache map[string]*urlkit.Group
	mu         sync.RWMutex
}

func NewURLKitResolver(opts URLKitResolverOptions) *URLKitResolver {
	if opts.SlugParam == "" {
		opts.SlugParam = "slug"
	}
	if opts.PageRoute == "" {
		opts.PageRoute = "page"
	}
	if opts.PostRoute == "" {
		opts.PostRoute = "post"
	}
	return &URLKitResolver{
		manager: opts.Manager,
		group:   strings.TrimSpace(opts.Group),
		routes: map[domain.LinkableType]string{
			domain.LinkPage: strings.TrimSpace(opts.PageRoute),
			domain.LinkPost: strings.TrimSpace(opts.PostRoute),
		},
		slugParam:  opts.SlugParam,
		groupCache: make(map[string]*urlkit.Group),
	}
}

func (r *URLKitResolver) Href(ctx context.Context, kind domain.LinkableType, slug string) (string, error) {
	fallback := fallbackHref(kind, slug)
	if r == nil || r.manager == nil || r.group == "" || fallback == "" {
		return fallback, nil
	}
	route := r.routes[kind]
	if route == "" {
		return fallback, nil
	}

	group, err := r.groupForPath(r.group)
	if err != nil {
		return fallback, err
	}
	builder, err := safeBuilder(group, route)
	if err != nil {
		return fallback, err
	}
	builder.WithParam(r.slugParam, strings.Trim(strings.TrimSpace(slug), "/"))
	href, err := builder.Build()
	if err != nil {
		return fallback, err
	}
	return href, nil
}

func (r *URLKitResolver) groupForPath(path string) (*urlkit.Group, error) {
	r.mu.RLock()
	group, ok := r.groupCache[path]
	r.mu.RUnlock()
	if ok {
		return group, nil
	}

	parts := strings.Split(path, ".")
	current, err := lookupGroup(r.manager, parts[0])
	if err != nil {
		return nil, err
	}
	for _, part := range parts[1:] {
		current, err = lookupChildGroup(current, part)
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.groupCache[path] = current
	r.mu.Unlock()
	return current, nil
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("menus: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			builder = nil
			err = fmt.Errorf("menus: urlkit route %q: %v", route, rec)
		}
	}()
	return group.Builder(route), nil
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			group = nil
			err = fmt.Errorf("menus: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	if group == nil {
		return nil, fmt.Errorf("menus: route group %q not found", name)
	}
	return group, nil
}

func lookupChildGroup(parent *urlkit.Group, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			group = nil
			err = fmt.Errorf("menus: child group %q not found", name)
		}
	}()
	group = parent.Group(name)
	if group == nil {
		return nil, fmt.Errorf("menus: child group %q not found", name)
	}
	return group, nil
}
