package apitest

import (
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/piholedash/api"
	"github.com/kbukum/piholedash/errors"
	"github.com/kbukum/piholedash/validation"
)

func newUUID() string { return uuid.NewString() }

func (b *Backend) routes() *gin.Engine {
	r := gin.New()
	r.Use(recovery(b.log), echoRequestID(), requestLogger(b.log), b.record)

	stats := r.Group("/api/stats")
	stats.GET("/summary", b.summary)
	stats.GET("/top-domains", b.topDomains(false))
	stats.GET("/top-blocked", b.topDomains(true))
	stats.GET("/over-time", b.overTime)
	stats.GET("/hourly-pattern", b.hourlyPattern)
	stats.GET("/blocklist-effectiveness", b.blocklistEffectiveness)

	devices := r.Group("/api/devices")
	devices.GET("", b.listDevices)
	devices.PATCH("/:mac", b.updateDevice)
	devices.GET("/:mac/stats", b.deviceStats)
	devices.GET("/:mac/activity", b.deviceActivity)
	devices.GET("/:mac/top-domains", b.deviceTopDomains(false))
	devices.GET("/:mac/top-blocked", b.deviceTopDomains(true))

	domains := r.Group("/api/domains")
	domains.GET("", b.listDomains)
	domains.POST("", b.addDomain)
	domains.GET("/presets", b.presets)
	domains.DELETE("/:id", b.deleteDomain)
	domains.PATCH("/:id", b.toggleDomain)

	blocks := r.Group("/api/timed-blocks")
	blocks.GET("", b.listTimedBlocks)
	blocks.POST("", b.createTimedBlock)
	blocks.DELETE("/:id", b.cancelTimedBlock)

	logs := r.Group("/api/logs")
	logs.GET("", b.queryLogs)
	logs.GET("/search", b.searchLogs)

	r.NoRoute(func(c *gin.Context) {
		abort(c, errors.New(errors.ErrCodeNotFound, "Not Found", http.StatusNotFound))
	})
	return r
}

// intQuery reads an optional integer parameter and checks it against [lo, hi].
// hi <= 0 means unbounded.
func intQuery(c *gin.Context, name string, def, lo, hi int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		abort(c, errors.InvalidFormat(name, "an integer"))
		return 0, false
	}
	if n < lo || (hi > 0 && n > hi) {
		msg := fmt.Sprintf("%s must be greater than or equal to %d", name, lo)
		if hi > 0 {
			msg = fmt.Sprintf("%s must be between %d and %d", name, lo, hi)
		}
		abort(c, errors.Validation(msg).WithDetail("field", name))
		return 0, false
	}
	return n, true
}

// bind decodes the JSON body into out and validates it.
func bind(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		abort(c, errors.Validation("invalid JSON body").WithCause(err))
		return false
	}
	if err := validation.Validate(out); err != nil {
		appErr, _ := errors.AsAppError(err)
		abort(c, appErr)
		return false
	}
	return true
}

// nowLocked returns the reference timestamp for statistics. Callers hold b.mu.
func (b *Backend) nowLocked() int64 {
	return latest(b.data.Logs, b.clock().Unix())
}

// --- stats ---

func (b *Backend) summary(c *gin.Context) {
	hours, ok := intQuery(c, "hours", api.DefaultHours, 1, 720)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	since := b.nowLocked() - int64(hours)*3600
	c.JSON(http.StatusOK, summarize(window(b.data.Logs, since, "")))
}

func (b *Backend) topDomains(blockedOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := intQuery(c, "limit", api.DefaultLimit, 1, 100)
		if !ok {
			return
		}
		hours, ok := intQuery(c, "hours", api.DefaultHours, 1, 720)
		if !ok {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		since := b.nowLocked() - int64(hours)*3600
		c.JSON(http.StatusOK, topDomains(window(b.data.Logs, since, ""), limit, blockedOnly))
	}
}

func (b *Backend) overTime(c *gin.Context) {
	hours, ok := intQuery(c, "hours", api.DefaultHours, 1, 720)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	since := b.nowLocked() - int64(hours)*3600
	c.JSON(http.StatusOK, overTime(window(b.data.Logs, since, "")))
}

func (b *Backend) hourlyPattern(c *gin.Context) {
	days, ok := intQuery(c, "days", api.DefaultDays, 1, 30)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	since := b.nowLocked() - int64(days)*daySeconds
	c.JSON(http.StatusOK, hourlyPattern(window(b.data.Logs, since, "")))
}

func (b *Backend) blocklistEffectiveness(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.data.Sources
	if out == nil {
		out = []api.BlocklistSource{}
	}
	c.JSON(http.StatusOK, out)
}

// --- devices ---

func (b *Backend) listDevices(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]api.Device, 0, len(b.data.Devices))
	for _, d := range b.data.Devices {
		d.Nickname, d.Icon = nil, nil
		if n, ok := b.data.Nicknames[d.MAC]; ok {
			nick := n.Nickname
			d.Nickname, d.Icon = &nick, n.Icon
		}
		out = append(out, d)
	}
	slices.SortStableFunc(out, func(x, y api.Device) int {
		switch {
		case x.LastQuery > y.LastQuery:
			return -1
		case x.LastQuery < y.LastQuery:
			return 1
		}
		return 0
	})
	c.JSON(http.StatusOK, out)
}

func (b *Backend) updateDevice(c *gin.Context) {
	var req api.UpdateDeviceRequest
	if !bind(c, &req) {
		return
	}
	mac := c.Param("mac")
	b.mu.Lock()
	b.data.Nicknames[mac] = Nickname{Nickname: req.Nickname, Icon: req.Icon}
	b.mu.Unlock()
	c.JSON(http.StatusOK, api.DeviceUpdate{MAC: mac, Nickname: req.Nickname, Icon: req.Icon})
}

// deviceIPLocked returns the address of the device with mac. Callers hold b.mu.
func (b *Backend) deviceIPLocked(mac string) string {
	for _, d := range b.data.Devices {
		if d.MAC == mac {
			if d.IP != nil {
				return *d.IP
			}
			return ""
		}
	}
	return ""
}

func (b *Backend) deviceStats(c *gin.Context) {
	hours, ok := intQuery(c, "hours", api.DefaultHours, 1, 720)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ip := b.deviceIPLocked(c.Param("mac"))
	if ip == "" {
		c.JSON(http.StatusOK, api.DeviceStats{Error: "Device not found"})
		return
	}
	since := b.nowLocked() - int64(hours)*3600
	c.JSON(http.StatusOK, deviceStats(window(b.data.Logs, since, ip)))
}

func (b *Backend) deviceActivity(c *gin.Context) {
	hours, ok := intQuery(c, "hours", api.DefaultHours, 1, 168)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ip := b.deviceIPLocked(c.Param("mac"))
	if ip == "" {
		c.JSON(http.StatusOK, []api.TimeBucket{})
		return
	}
	since := b.nowLocked() - int64(hours)*3600
	c.JSON(http.StatusOK, overTime(window(b.data.Logs, since, ip)))
}

func (b *Backend) deviceTopDomains(blockedOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := intQuery(c, "limit", api.DefaultLimit, 1, 100)
		if !ok {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		ip := b.deviceIPLocked(c.Param("mac"))
		if ip == "" {
			c.JSON(http.StatusOK, []api.DomainCount{})
			return
		}
		since := b.nowLocked() - daySeconds
		c.JSON(http.StatusOK, topDomains(window(b.data.Logs, since, ip), limit, blockedOnly))
	}
}

// --- domains ---

var domainTypeCodes = map[string]int{
	api.DomainTypeWhitelist:  api.DomainTypeCodeWhitelist,
	api.DomainTypeBlacklist:  api.DomainTypeCodeBlacklist,
	api.DomainTypeRegexWhite: api.DomainTypeCodeRegexWhite,
	api.DomainTypeRegexBlack: api.DomainTypeCodeRegexBlack,
}

func (b *Backend) listDomains(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	code, filtered := domainTypeCodes[c.Query("type")]
	out := []api.DomainEntry{}
	for _, d := range b.data.Domains {
		if filtered && d.Type != code {
			continue
		}
		out = append(out, d)
	}
	slices.SortStableFunc(out, func(x, y api.DomainEntry) int {
		if !filtered && x.Type != y.Type {
			return x.Type - y.Type
		}
		switch {
		case x.DateAdded > y.DateAdded:
			return -1
		case x.DateAdded < y.DateAdded:
			return 1
		}
		return 0
	})
	c.JSON(http.StatusOK, out)
}

// wildcardPattern is the regex the resolver stores for a wildcard entry.
func wildcardPattern(domain string) string {
	return `(\.|^)` + regexp.QuoteMeta(domain) + `$`
}

// addEntryLocked inserts a list entry unless an identical one exists.
// Callers hold b.mu.
func (b *Backend) addEntryLocked(code int, domain string, comment *string) string {
	for _, d := range b.data.Domains {
		if d.Type == code && d.Domain == domain {
			return fmt.Sprintf("[i] %s already exists in %s, no need to add!", domain, d.TypeName())
		}
	}
	now := b.clock().Unix()
	e := api.DomainEntry{
		ID: b.nextID, Type: code, Domain: domain, Enabled: 1,
		DateAdded: now, DateModified: now, Comment: comment,
	}
	b.nextID++
	b.data.Domains = append(b.data.Domains, e)
	return fmt.Sprintf("[i] Adding %s to the %s...", domain, e.TypeName())
}

// removeEntryLocked deletes entries matching code and domain. Callers hold b.mu.
func (b *Backend) removeEntryLocked(code int, domain string) {
	b.data.Domains = slices.DeleteFunc(b.data.Domains, func(d api.DomainEntry) bool {
		return d.Type == code && d.Domain == domain
	})
}

func (b *Backend) addDomain(c *gin.Context) {
	var req api.AddDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.Validation("invalid JSON body").WithCause(err))
		return
	}
	if req.Type == "" {
		req.Type = api.DomainTypeBlacklist
	}
	if req.Domain == "" {
		abort(c, errors.MissingField("domain"))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	var out string
	switch req.Type {
	case api.DomainTypeBlacklist:
		out = b.addEntryLocked(api.DomainTypeCodeBlacklist, req.Domain, req.Comment)
	case api.DomainTypeWhitelist:
		out = b.addEntryLocked(api.DomainTypeCodeWhitelist, req.Domain, nil)
	case api.DomainTypeRegexBlack:
		out = b.addEntryLocked(api.DomainTypeCodeRegexBlack, req.Domain, req.Comment)
	case api.DomainTypeWildcard:
		out = b.addEntryLocked(api.DomainTypeCodeRegexBlack, wildcardPattern(req.Domain), req.Comment)
	default:
		abort(c, errors.New(errors.ErrCodeInvalidInput, "Unknown domain type: "+req.Type, http.StatusBadRequest))
		return
	}
	c.JSON(http.StatusOK, api.StatusResponse{Status: "ok", Output: out})
}

func (b *Backend) domainID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, errors.InvalidFormat("domain_id", "an integer"))
		return 0, false
	}
	return id, true
}

func (b *Backend) deleteDomain(c *gin.Context) {
	id, ok := b.domainID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i := slices.IndexFunc(b.data.Domains, func(d api.DomainEntry) bool { return d.ID == id })
	if i < 0 {
		abort(c, errors.NotFound("Domain", c.Param("id")))
		return
	}
	target := b.data.Domains[i]
	if target.Type == api.DomainTypeCodeRegexWhite {
		abort(c, errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("Unsupported domain type code: %d", target.Type), http.StatusBadRequest))
		return
	}
	b.removeEntryLocked(target.Type, target.Domain)
	c.JSON(http.StatusOK, api.StatusResponse{Status: "ok"})
}

func (b *Backend) toggleDomain(c *gin.Context) {
	id, ok := b.domainID(c)
	if !ok {
		return
	}
	var req struct {
		Enabled *bool `json:"enabled" validate:"required"`
	}
	if !bind(c, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.data.Domains {
		if b.data.Domains[i].ID != id {
			continue
		}
		b.data.Domains[i].Enabled = 0
		if *req.Enabled {
			b.data.Domains[i].Enabled = 1
		}
		b.data.Domains[i].DateModified = b.clock().Unix()
	}
	c.JSON(http.StatusOK, api.StatusResponse{Status: "ok", Enabled: req.Enabled})
}

func (b *Backend) presets(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, b.data.Presets)
}

// --- timed blocks ---

// expireLocked lifts every block whose time is up. Callers hold b.mu.
func (b *Backend) expireLocked(now int64) {
	b.data.Blocks = slices.DeleteFunc(b.data.Blocks, func(t api.TimedBlock) bool {
		if t.ExpiresAt > now {
			return false
		}
		b.removeEntryLocked(api.DomainTypeCodeRegexBlack, wildcardPattern(t.Domain))
		return true
	})
}

func (b *Backend) listTimedBlocks(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock().Unix()
	b.expireLocked(now)
	out := make([]api.TimedBlock, 0, len(b.data.Blocks))
	for _, t := range b.data.Blocks {
		t.RemainingSeconds = max(0, t.ExpiresAt-now)
		out = append(out, t)
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) createTimedBlock(c *gin.Context) {
	var req api.TimedBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.Validation("invalid JSON body").WithCause(err))
		return
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = api.DefaultTimedBlockMinutes
	}
	if err := validation.Validate(req); err != nil {
		appErr, _ := errors.AsAppError(err)
		abort(c, appErr)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock().Unix()
	b.expireLocked(now)
	out := make([]api.TimedBlock, 0, len(req.Domains))
	for _, domain := range req.Domains {
		id := b.newID()
		expires := now + int64(req.DurationMinutes)*60
		comment := fmt.Sprintf("timed-block %s expires %d", id, expires)
		b.addEntryLocked(api.DomainTypeCodeRegexBlack, wildcardPattern(domain), &comment)
		t := api.TimedBlock{ID: id, Domain: domain, CreatedAt: now, ExpiresAt: expires, RemainingSeconds: expires - now}
		b.data.Blocks = append(b.data.Blocks, t)
		out = append(out, t)
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) cancelTimedBlock(c *gin.Context) {
	id := c.Param("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expireLocked(b.clock().Unix())
	i := slices.IndexFunc(b.data.Blocks, func(t api.TimedBlock) bool { return t.ID == id })
	if i < 0 {
		abort(c, errors.New(errors.ErrCodeNotFound, "Timed block not found or already expired", http.StatusNotFound))
		return
	}
	b.removeEntryLocked(api.DomainTypeCodeRegexBlack, wildcardPattern(b.data.Blocks[i].Domain))
	b.data.Blocks = slices.Delete(b.data.Blocks, i, i+1)
	c.JSON(http.StatusOK, api.StatusResponse{Status: "ok"})
}

// --- logs ---

const defaultLogsPerPage = 50

func (b *Backend) queryLogs(c *gin.Context) {
	page, ok := intQuery(c, "page", 1, 1, 0)
	if !ok {
		return
	}
	perPage, ok := intQuery(c, "per_page", defaultLogsPerPage, 1, api.MaxLogsPerPage)
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.nowLocked()
	from, ok := intQuery(c, "from", int(now-daySeconds), 0, 0)
	if !ok {
		return
	}
	to, ok := intQuery(c, "to", int(now), 0, 0)
	if !ok {
		return
	}
	domain, client := c.Query("domain"), c.Query("client")
	statuses := statusSet(c.Query("status"))

	var matched []api.QueryLog
	for _, q := range b.data.Logs {
		if q.Timestamp < int64(from) || q.Timestamp > int64(to) {
			continue
		}
		if domain != "" && !strings.Contains(q.Domain, domain) {
			continue
		}
		if client != "" && q.Client != client {
			continue
		}
		if statuses != nil && !slices.Contains(statuses, q.Status) {
			continue
		}
		matched = append(matched, q)
	}
	matched = newestFirst(matched)

	total := len(matched)
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)
	items := matched[start:end]
	if items == nil {
		items = []api.QueryLog{}
	}
	c.JSON(http.StatusOK, api.QueryPage{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   (total + perPage - 1) / perPage,
	})
}

const searchLimit = 50

func (b *Backend) searchLogs(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		abort(c, errors.MissingField("q"))
		return
	}
	hours, ok := intQuery(c, "hours", api.DefaultHours, 1, 168)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	since := b.nowLocked() - int64(hours)*3600
	out := []api.QueryLog{}
	for _, entry := range newestFirst(window(b.data.Logs, since, "")) {
		if !strings.Contains(entry.Domain, q) {
			continue
		}
		entry.ReplyType, entry.ReplyTime, entry.DNSSEC = nil, nil, nil
		out = append(out, entry)
		if len(out) == searchLimit {
			break
		}
	}
	c.JSON(http.StatusOK, out)
}
