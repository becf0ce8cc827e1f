package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/prometheus/client_golang/prometheus"

	"campusgate/internal/identity"
	"campusgate/internal/platform/blobstore"
	"campusgate/internal/platform/config"
	id "campusgate/pkg/domain"
)

const rootEmail = "root@campus.test"

type actor struct {
	id    id.AccountID
	token string
}

// world is the state of one scenario: a fresh in-memory deployment and the
// people acting on it.
type world struct {
	app    *App
	tokens *identity.JWTService
	actors map[string]*actor
	orgs   map[string]string
	// placements are keyed by "student@company".
	placements map[string]string

	status int
	body   map[string]any
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("feature scenarios failed")
	}
}

func initializeScenario(sc *godog.ScenarioContext) {
	w := &world{}

	sc.Step(`^campus gate (retains|removes) role profiles on rejection$`, w.start)
	sc.Step(`^an institution "([^"]*)"$`, w.institution)
	sc.Step(`^a company "([^"]*)"$`, w.company)
	sc.Step(`^a company "([^"]*)" with website "([^"]*)"$`, w.companyWithWebsite)
	sc.Step(`^a government department "([^"]*)"$`, w.department)
	sc.Step(`^"([^"]*)" is an approved institution admin of "([^"]*)"$`, w.approvedInstitutionAdmin)
	sc.Step(`^"([^"]*)" is an approved company representative of "([^"]*)"$`, w.approvedCompanyRep)
	sc.Step(`^"([^"]*)" is an approved government representative of "([^"]*)"$`, w.approvedGovernmentRep)

	sc.Step(`^student "([^"]*)" submits enrollment "([^"]*)" at "([^"]*)"$`, w.studentSubmits)
	sc.Step(`^"([^"]*)" approves "([^"]*)"$`, w.approves)
	sc.Step(`^"([^"]*)" rejects "([^"]*)" with feedback "([^"]*)"$`, w.rejects)
	sc.Step(`^"([^"]*)" should have status "([^"]*)"$`, w.shouldHaveStatus)
	sc.Step(`^"([^"]*)" should have feedback "([^"]*)"$`, w.shouldHaveFeedback)
	sc.Step(`^"([^"]*)" should have a role profile$`, w.shouldHaveProfile)
	sc.Step(`^"([^"]*)" should have no role profile$`, w.shouldHaveNoProfile)

	sc.Step(`^"([^"]*)" records a placement for "([^"]*)" at "([^"]*)"$`, w.recordsPlacement)
	sc.Step(`^"([^"]*)" marks the placement for "([^"]*)" at "([^"]*)" as "([^"]*)"$`, w.marksPlacement)
	sc.Step(`^the placement status should be "([^"]*)"$`, w.placementStatusShouldBe)
	sc.Step(`^"([^"]*)" should see (\d+) verified placements?$`, w.shouldSeeVerified)
	sc.Step(`^the verified placement shows "([^"]*)" with enrollment "([^"]*)" at "([^"]*)" "([^"]*)"$`, w.verifiedPlacementShows)

	sc.Step(`^the response status should be (\d+)$`, w.responseStatusShouldBe)
	sc.Step(`^the error should be "([^"]*)"$`, w.errorShouldBe)
	sc.Step(`^the current status should be "([^"]*)"$`, w.currentStatusShouldBe)
}

func (w *world) start(policy string) error {
	cfg := config.Config{
		Verification: config.VerificationConfig{
			PlatformAdminEmails: []string{rootEmail},
			RejectProfilePolicy: config.RejectPolicyRetain,
			UploadTimeout:       5 * time.Second,
		},
		Placement: config.PlacementConfig{ReportCacheTTL: time.Minute},
	}
	if policy == "removes" {
		cfg.Verification.RejectProfilePolicy = config.RejectPolicyDelete
	}
	w.tokens = identity.NewJWTService("bdd-signing-key", "campusgate-bdd")
	app, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), prometheus.NewRegistry(),
		Backends{Blobs: blobstore.NewMemoryStore("https://blobs.test")}, w.tokens)
	if err != nil {
		return err
	}
	w.app = app
	w.actors = make(map[string]*actor)
	w.orgs = make(map[string]string)
	w.placements = make(map[string]string)
	return w.signIn("Root", rootEmail)
}

func emailFor(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@campus.test"
}

func (w *world) signIn(name, email string) error {
	accountID := id.NewAccountID()
	token, err := w.tokens.IssueToken(accountID, email, name, time.Hour)
	if err != nil {
		return err
	}
	w.actors[name] = &actor{id: accountID, token: token}
	if err := w.do(name, http.MethodPost, "/identity/callback", nil); err != nil {
		return err
	}
	return w.expect(http.StatusOK)
}

func (w *world) do(name, method, path string, body any) error {
	a, ok := w.actors[name]
	if !ok {
		return fmt.Errorf("unknown actor %q", name)
	}
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	w.app.Router.ServeHTTP(rr, req)

	w.status = rr.Code
	w.body = nil
	if rr.Body.Len() > 0 {
		_ = json.Unmarshal(rr.Body.Bytes(), &w.body)
	}
	return nil
}

func (w *world) expect(status int) error {
	if w.status != status {
		return fmt.Errorf("expected status %d, got %d: %v", status, w.status, w.body)
	}
	return nil
}

func (w *world) createOrg(kind, name string, website *string) error {
	fields := map[string]any{"kind": kind, "name": name, "contact_email": "office@" + strings.ToLower(strings.Fields(name)[0]) + ".example"}
	if website != nil {
		fields["website"] = *website
	}
	if err := w.do("Root", http.MethodPost, "/organizations", fields); err != nil {
		return err
	}
	if err := w.expect(http.StatusCreated); err != nil {
		return err
	}
	w.orgs[name] = w.body["id"].(string)
	return nil
}

func (w *world) institution(name string) error { return w.createOrg("INSTITUTION", name, nil) }
func (w *world) company(name string) error     { return w.createOrg("COMPANY", name, nil) }
func (w *world) department(name string) error  { return w.createOrg("GOVERNMENT", name, nil) }

func (w *world) companyWithWebsite(name, website string) error {
	return w.createOrg("COMPANY", name, &website)
}

func doc(kind string) map[string]any {
	return map[string]any{
		"kind":         kind,
		"file_name":    strings.ToLower(kind) + ".pdf",
		"content_type": "application/pdf",
		"content":      []byte("scan of " + kind),
	}
}

// submitAndApprove signs name in, submits for role and has the platform admin
// approve it.
func (w *world) submitAndApprove(name, role, org string, extra map[string]any, kinds ...string) error {
	if err := w.signIn(name, emailFor(name)); err != nil {
		return err
	}
	docs := make([]map[string]any, 0, len(kinds))
	for _, k := range kinds {
		docs = append(docs, doc(k))
	}
	body := map[string]any{"role": role, "organization_id": w.orgs[org], "documents": docs}
	for k, v := range extra {
		body[k] = v
	}
	if err := w.do(name, http.MethodPost, "/verification/submissions", body); err != nil {
		return err
	}
	if err := w.expect(http.StatusCreated); err != nil {
		return err
	}
	if err := w.approves("Root", name); err != nil {
		return err
	}
	return w.expect(http.StatusOK)
}

func (w *world) approvedInstitutionAdmin(name, org string) error {
	return w.submitAndApprove(name, "INSTITUTION_ADMIN", org, nil, "INSTITUTION_ID", "AUTHORIZATION_LETTER")
}

func (w *world) approvedCompanyRep(name, org string) error {
	return w.submitAndApprove(name, "COMPANY_REPRESENTATIVE", org, nil, "COMPANY_ID", "BUSINESS_CARD")
}

func (w *world) approvedGovernmentRep(name, org string) error {
	extra := map[string]any{"government": map[string]any{"department_name": org, "designation": "Statistician"}}
	return w.submitAndApprove(name, "GOVERNMENT_REPRESENTATIVE", org, extra, "GOVERNMENT_ID", "DEPARTMENT_LETTER")
}

func (w *world) studentSubmits(name, enrollment, institution string) error {
	if _, ok := w.actors[name]; !ok {
		if err := w.signIn(name, emailFor(name)); err != nil {
			return err
		}
	}
	return w.do(name, http.MethodPost, "/verification/submissions", map[string]any{
		"role":            "STUDENT",
		"organization_id": w.orgs[institution],
		"documents":       []map[string]any{doc("STUDENT_ID")},
		"student": map[string]any{
			"gender":            "F",
			"department":        "Computer Science",
			"enrollment_number": enrollment,
			"graduation_year":   2025,
		},
	})
}

func (w *world) review(reviewer, target, decision string, feedback *string) error {
	t, ok := w.actors[target]
	if !ok {
		return fmt.Errorf("unknown actor %q", target)
	}
	body := map[string]any{"decision": decision}
	if feedback != nil {
		body["feedback"] = *feedback
	}
	return w.do(reviewer, http.MethodPost, "/verification/accounts/"+t.id.String()+"/review", body)
}

func (w *world) approves(reviewer, target string) error {
	return w.review(reviewer, target, "APPROVED", nil)
}

func (w *world) rejects(reviewer, target, feedback string) error {
	return w.review(reviewer, target, "REJECTED", &feedback)
}

func (w *world) verificationOf(name string) (map[string]any, error) {
	if err := w.do(name, http.MethodGet, "/me/verification", nil); err != nil {
		return nil, err
	}
	if err := w.expect(http.StatusOK); err != nil {
		return nil, err
	}
	return w.body, nil
}

func (w *world) shouldHaveStatus(name, status string) error {
	saved, savedBody := w.status, w.body
	defer func() { w.status, w.body = saved, savedBody }()
	v, err := w.verificationOf(name)
	if err != nil {
		return err
	}
	if v["status"] != status {
		return fmt.Errorf("expected %s to be %s, got %v", name, status, v["status"])
	}
	return nil
}

func (w *world) shouldHaveFeedback(name, feedback string) error {
	v, err := w.verificationOf(name)
	if err != nil {
		return err
	}
	if v["feedback"] != feedback {
		return fmt.Errorf("expected feedback %q, got %v", feedback, v["feedback"])
	}
	return nil
}

func (w *world) hasProfile(name string) (bool, error) {
	a, ok := w.actors[name]
	if !ok {
		return false, fmt.Errorf("unknown actor %q", name)
	}
	p, err := w.app.Verification.ResolvePrincipal(context.Background(), a.id)
	if err != nil {
		return false, err
	}
	return !p.ProfileID.IsNil(), nil
}

func (w *world) shouldHaveProfile(name string) error {
	ok, err := w.hasProfile(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("expected %s to have a role profile", name)
	}
	return nil
}

func (w *world) shouldHaveNoProfile(name string) error {
	ok, err := w.hasProfile(name)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("expected %s to have no role profile", name)
	}
	return nil
}

func (w *world) studentProfileID(name string) (string, error) {
	a, ok := w.actors[name]
	if !ok {
		return "", fmt.Errorf("unknown actor %q", name)
	}
	p, err := w.app.Verification.ResolvePrincipal(context.Background(), a.id)
	if err != nil {
		return "", err
	}
	return p.ProfileID.String(), nil
}

func (w *world) recordsPlacement(admin, student, company string) error {
	profileID, err := w.studentProfileID(student)
	if err != nil {
		return err
	}
	if err := w.do(admin, http.MethodPost, "/placements", map[string]any{
		"student_profile_id": profileID,
		"company_id":         w.orgs[company],
		"role_title":         "Graduate Engineer",
	}); err != nil {
		return err
	}
	if w.status == http.StatusCreated {
		w.placements[student+"@"+company] = w.body["id"].(string)
	}
	return nil
}

func (w *world) marksPlacement(rep, student, company, decision string) error {
	placementID, ok := w.placements[student+"@"+company]
	if !ok {
		return fmt.Errorf("no placement for %s at %s", student, company)
	}
	return w.do(rep, http.MethodPost, "/placements/"+placementID+"/verify", map[string]any{"decision": decision})
}

func (w *world) placementStatusShouldBe(status string) error {
	if w.body["status"] != status {
		return fmt.Errorf("expected placement status %s, got %v", status, w.body["status"])
	}
	return nil
}

func (w *world) verified(reader string) ([]any, error) {
	if err := w.do(reader, http.MethodGet, "/placements/verified", nil); err != nil {
		return nil, err
	}
	if err := w.expect(http.StatusOK); err != nil {
		return nil, err
	}
	list, _ := w.body["placements"].([]any)
	return list, nil
}

func (w *world) shouldSeeVerified(reader string, n int) error {
	list, err := w.verified(reader)
	if err != nil {
		return err
	}
	if len(list) != n {
		return fmt.Errorf("expected %d verified placements, got %d", n, len(list))
	}
	return nil
}

func (w *world) verifiedPlacementShows(student, enrollment, company, website string) error {
	list, err := w.verified("Divya Pillai")
	if err != nil {
		return err
	}
	if len(list) != 1 {
		return fmt.Errorf("expected one verified placement, got %d", len(list))
	}
	r := list[0].(map[string]any)
	want := map[string]string{
		"student_name":      student,
		"enrollment_number": enrollment,
		"company_name":      company,
		"company_website":   website,
	}
	for k, v := range want {
		if r[k] != v {
			return fmt.Errorf("expected %s %q, got %v", k, v, r[k])
		}
	}
	return nil
}

func (w *world) responseStatusShouldBe(status int) error {
	return w.expect(status)
}

func (w *world) errorShouldBe(code string) error {
	if w.body["error"] != code {
		return fmt.Errorf("expected error %q, got %v", code, w.body["error"])
	}
	return nil
}

func (w *world) currentStatusShouldBe(status string) error {
	if w.body["current_status"] != status {
		return fmt.Errorf("expected current_status %q, got %v", status, w.body["current_status"])
	}
	return nil
}
