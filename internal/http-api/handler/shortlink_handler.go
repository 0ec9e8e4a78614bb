package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"foodgram/internal/http-api/dto"
	"foodgram/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

// ShortLinkHandler issues and resolves /s/<code>/ links.
type ShortLinkHandler struct {
	svc     service.ShortLinkService
	baseURL string
	proxies []netip.Prefix
}

// NewShortLinkHandler takes the public base URL used to build absolute links.
// When empty, links are built from the request's scheme and Host, and
// X-Forwarded-Proto is only read from trustedProxies (IPs or CIDRs).
func NewShortLinkHandler(svc service.ShortLinkService, baseURL string, trustedProxies []string) *ShortLinkHandler {
	return &ShortLinkHandler{
		svc:     svc,
		baseURL: strings.TrimRight(baseURL, "/"),
		proxies: parseProxies(trustedProxies),
	}
}

// RegisterRoutes mounts the redirect on the root router. mw runs before it,
// typically a rate limiter.
func (h *ShortLinkHandler) RegisterRoutes(r gin.IRoutes, mw ...gin.HandlerFunc) {
	r.GET("/s/:code/", append(mw, h.Redirect)...)
}

// RegisterAPIRoutes mounts get-link under the recipes group. No auth needed.
func (h *ShortLinkHandler) RegisterAPIRoutes(recipes *gin.RouterGroup) {
	recipes.GET("/:id/get-link", h.GetLink)
}

func (h *ShortLinkHandler) Redirect(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	recipeID, err := h.svc.Resolve(ctx, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/recipes/%d/", h.base(c), recipeID))
}

func (h *ShortLinkHandler) GetLink(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	code, err := h.svc.Code(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ShortLinkResponse{
		ShortLink: fmt.Sprintf("%s/s/%s/", h.base(c), code),
	})
}

func (h *ShortLinkHandler) base(c *gin.Context) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if c.Request.TLS != nil || (h.fromProxy(c) && strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")) {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

func (h *ShortLinkHandler) fromProxy(c *gin.Context) bool {
	addr, err := netip.ParseAddr(c.RemoteIP())
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range h.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// parseProxies skips malformed entries; config.Validate reports them.
func parseProxies(list []string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(list))
	for _, s := range list {
		if strings.Contains(s, "/") {
			if p, err := netip.ParsePrefix(s); err == nil {
				out = append(out, p.Masked())
			}
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			a = a.Unmap()
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return out
}
