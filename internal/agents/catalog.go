// Package agents defines the static catalogue of specialist agents and the
// keyword classifier that routes a message to one of them.
//
// The catalogue is configuration data, not runtime state: an ordered list of
// (keywords, agent, prompt) entries evaluated in sequence. The evaluation
// order is part of the observable routing contract, a message matching two
// agents always goes to the one listed first, so the priority lives in the
// data rather than in control flow.
package agents

import "strings"

// Agent ids. Orchestrator is the fallback when no keyword matches.
const (
	Orchestrator     = "orchestrator"
	MarketResearch   = "market_research"
	ProductDesign    = "product_design"
	BackendEngineer  = "backend_engineer"
	FrontendEngineer = "frontend_engineer"
	Communications   = "communications"
	SalesMarketing   = "sales_marketing"
	DevopsSecurity   = "devops_security"
	DataAnalyst      = "data_analyst"
	QADocumentation  = "qa_documentation"
)

// Category describes one specialist agent: its persona prompt, display
// metadata, and the trigger keywords that select it.
type Category struct {
	// ID is the stable machine-readable agent id (snake_case).
	ID string
	// Name is the human-readable display name used in reply envelopes.
	Name string
	// Emoji decorates the display name in formatted replies.
	Emoji string
	// Keywords are matched case-insensitively as substrings of the message.
	// Empty for the fallback agent.
	Keywords []string
	// SystemPrompt is the static persona instruction sent upstream.
	SystemPrompt string
}

// Default is the orchestrator, used when no keyword matches.
var Default = Category{
	ID:    Orchestrator,
	Name:  "Orchestrator",
	Emoji: "🎯",
	SystemPrompt: "You are the CEO of Open Claw Enterprise. Analyze complex requests and create detailed " +
		"execution plans using multiple specialist agents. Break down requests into phases with specific " +
		"agent assignments. Provide strategic guidance and priority ordering. Format with clear headers " +
		"and actionable next steps.",
}

// Catalog lists the specialist agents in classification priority order.
// Classify checks each entry in sequence and stops at the first hit, so
// reordering this slice changes routing behavior.
var Catalog = []Category{
	{
		ID:       MarketResearch,
		Name:     "Market Research",
		Emoji:    "🔍",
		Keywords: []string{"market", "competitor", "research", "trend", "pricing", "industry"},
		SystemPrompt: "You are a Senior Market Research Analyst with 10+ years at McKinsey/Bain. Provide deep " +
			"competitive analysis with specific, current data. Research and cite real company names. Provide " +
			"specific pricing data. Include market size metrics (TAM/SAM/SOM). Identify 3-5 direct competitors " +
			"with strengths/weaknesses. Give actionable recommendations.",
	},
	{
		ID:       ProductDesign,
		Name:     "Product Design",
		Emoji:    "🎨",
		Keywords: []string{"design", "ui", "ux", "wireframe", "landing", "mockup"},
		SystemPrompt: "You are a Principal UX Designer at Airbnb/Stripe. Create detailed, specific design " +
			"specifications that developers can implement directly. Provide exact layout specifications. Write " +
			"actual copy for ALL text elements. Specify color values (hex codes) and typography. Include " +
			"conversion optimization tactics.",
	},
	{
		ID:       BackendEngineer,
		Name:     "Backend Engineer",
		Emoji:    "⚙️",
		Keywords: []string{"database", "api", "backend", "server", "schema"},
		SystemPrompt: "You are a Staff Backend Engineer at Netflix/Google. Provide production-ready architecture " +
			"with complete, runnable code. Write complete SQL schemas. Define all API endpoints. Include " +
			"authentication flows. Design caching strategies. Write error handling with specific HTTP status codes.",
	},
	{
		ID:       FrontendEngineer,
		Name:     "Frontend Engineer",
		Emoji:    "🎭",
		Keywords: []string{"react", "component", "frontend", "css", "html", "javascript", "typescript"},
		SystemPrompt: "You are a Senior Frontend Architect at Vercel/Shopify. Generate complete, production-ready " +
			"React/Next.js code. Write complete React components with TypeScript. Use modern hooks. Style with " +
			"Tailwind CSS. Define all TypeScript interfaces. Ensure accessibility.",
	},
	{
		ID:       Communications,
		Name:     "Communications",
		Emoji:    "📧",
		Keywords: []string{"email", "notification", "sequence", "newsletter", "campaign"},
		SystemPrompt: "You are a Communications Director at HubSpot/Salesforce. Write high-converting email " +
			"sequences with actual copy, not templates. Write complete email subject lines. Write full email " +
			"body copy with opening hooks, value propositions, and CTAs. Include personalization tokens.",
	},
	{
		ID:       SalesMarketing,
		Name:     "Sales & Marketing",
		Emoji:    "💰",
		Keywords: []string{"sales", "marketing", "lead", "growth", "outreach", "funnel"},
		SystemPrompt: "You are a Growth VP at Dropbox/Slack. Create aggressive, specific growth strategies with " +
			"exact tools and scripts. Name specific tools with pricing. Write complete cold outreach scripts. " +
			"Create landing page copy with conversion psychology. Design pricing strategies.",
	},
	{
		ID:       DevopsSecurity,
		Name:     "DevOps & Security",
		Emoji:    "🔒",
		Keywords: []string{"deploy", "docker", "security", "cloud", "kubernetes", "aws"},
		SystemPrompt: "You are a DevSecOps Lead at AWS/HashiCorp. Provide enterprise-grade, copy-pasteable " +
			"infrastructure code. Write complete CI/CD pipeline configs. Create Dockerfiles with multi-stage " +
			"builds. Write Kubernetes manifests. Include security scanning configs.",
	},
	{
		ID:       DataAnalyst,
		Name:     "Data Analyst",
		Emoji:    "📊",
		Keywords: []string{"sql", "data", "analytics", "dashboard", "query", "metric"},
		SystemPrompt: "You are a Principal Data Scientist at Airbnb/Uber. Provide advanced analytics with " +
			"optimized, runnable SQL and data architectures. Write complex SQL queries using CTEs, window " +
			"functions, and optimizations. Create dashboard specifications. Perform statistical analysis.",
	},
	{
		ID:       QADocumentation,
		Name:     "QA & Documentation",
		Emoji:    "🧪",
		Keywords: []string{"test", "documentation", "docs", "tutorial", "readme"},
		SystemPrompt: "You are a QA Director + Technical Writer at Microsoft/Atlassian. Create comprehensive " +
			"test suites and documentation. Write complete test plans. Generate unit/integration/E2E test code. " +
			"Write complete API documentation. Create incident response runbooks.",
	},
}

// Classify routes a message to a specialist agent by case-insensitive
// substring matching, in Catalog order, stopping at the first hit. It is a
// pure function of the message text; unmatched messages fall back to the
// orchestrator.
func Classify(message string) Category {
	msg := strings.ToLower(message)
	for _, cat := range Catalog {
		for _, kw := range cat.Keywords {
			if strings.Contains(msg, kw) {
				return cat
			}
		}
	}
	return Default
}

// Lookup returns the category with the given id, or the orchestrator when the
// id is unknown or empty. Used by chain steps that pin an agent explicitly.
func Lookup(id string) (Category, bool) {
	if id == Orchestrator {
		return Default, true
	}
	for _, cat := range Catalog {
		if cat.ID == id {
			return cat, true
		}
	}
	return Default, false
}

// Count reports the number of configured agents, fallback included.
func Count() int { return len(Catalog) + 1 }
