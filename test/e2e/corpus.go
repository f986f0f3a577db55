// Package e2e exercises the full pipeline on a generated documentation site: build
// the snapshot, load it into each store, and query it through the engine and the
// HTTP server.
package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Topic is one page of the generated site. Phrase appears only in this page and is
// used as its query.
type Topic struct {
	Title   string
	Phrase  string
	Content string
}

// Page is a topic placed in the site tree.
type Page struct {
	Slug string
	Path string
	Topic
}

// QueryTestCase is a query and the page expected to rank first for it.
type QueryTestCase struct {
	Query        string
	ExpectedSlug string
	Description  string
}

// Corpus is a generated site with its query test cases.
type Corpus struct {
	Pages     []Page
	TestCases []QueryTestCase
}

var topics = []Topic{
	{"Python Guide", "Python programming language", "Python is a high-level programming language. Python programming language is used for web development and data science."},
	{"Kubernetes Docs", "Kubernetes container orchestration", "Kubernetes is an open-source container orchestration platform. Kubernetes container orchestration automates deployment and scaling."},
	{"React Tutorial", "React hooks and components", "React is a JavaScript library. React hooks and components enable building user interfaces."},
	{"Go Language", "Go golang concurrency", "Go is a statically typed language. Go golang concurrency is achieved with goroutines and channels."},
	{"PostgreSQL Manual", "PostgreSQL relational database", "PostgreSQL is an advanced relational database. PostgreSQL relational database supports JSON and full-text search."},
	{"Docker Handbook", "Docker container images", "Docker enables building and shipping applications. Docker container images are portable across environments."},
	{"Machine Learning", "machine learning algorithms", "Machine learning is a subset of AI. Machine learning algorithms learn patterns from data."},
	{"Neural Networks", "neural network deep learning", "Neural networks are inspired by the brain. Neural network deep learning powers modern AI."},
	{"REST API Design", "REST API endpoints", "REST is an architectural style for APIs. REST API endpoints use HTTP methods and status codes."},
	{"GraphQL Overview", "GraphQL query language", "GraphQL is a query language for APIs. GraphQL query language lets clients request exactly what they need."},
	{"TypeScript Handbook", "TypeScript type system", "TypeScript adds static types to JavaScript. TypeScript type system catches errors at compile time."},
	{"Redis Cache", "Redis in-memory cache", "Redis is an in-memory data store. Redis in-memory cache is used for sessions and caching."},
	{"Elasticsearch Guide", "Elasticsearch full-text search", "Elasticsearch is a search and analytics engine. Elasticsearch full-text search scales horizontally."},
	{"AWS Lambda", "AWS Lambda serverless", "AWS Lambda runs code without servers. AWS Lambda serverless scales automatically."},
	{"Terraform IaC", "Terraform infrastructure as code", "Terraform manages cloud infrastructure. Terraform infrastructure as code is declarative."},
	{"Prometheus Metrics", "Prometheus monitoring metrics", "Prometheus is a monitoring system. Prometheus monitoring metrics are time-series based."},
	{"gRPC Overview", "gRPC remote procedure calls", "gRPC is a high-performance RPC framework. gRPC remote procedure calls use HTTP/2 and protobuf."},
	{"OAuth 2.0", "OAuth 2.0 authorization", "OAuth 2.0 is an authorization framework. OAuth 2.0 authorization enables secure delegated access."},
	{"JWT Tokens", "JWT JSON web tokens", "JWT is a compact token format. JWT JSON web tokens are used for authentication."},
	{"CI/CD Pipelines", "CI/CD continuous integration", "CI/CD automates build and deployment. CI/CD continuous integration runs tests on every commit."},
	{"Git Workflow", "Git version control", "Git is a distributed version control system. Git version control tracks changes in source code."},
	{"SQL Basics", "SQL structured query language", "SQL is used to manage relational data. SQL structured query language has SELECT INSERT UPDATE DELETE."},
	{"Microservices", "microservices architecture", "Microservices split an app into small services. Microservices architecture enables independent deployment."},
	{"Kafka Streams", "Apache Kafka streaming", "Apache Kafka is a distributed event stream platform. Apache Kafka streaming handles high throughput."},
	{"Nginx Config", "Nginx reverse proxy", "Nginx is a web server and reverse proxy. Nginx reverse proxy balances load and serves static files."},
	{"OOP Principles", "object-oriented programming", "OOP organizes code around objects. Object-oriented programming uses encapsulation and inheritance."},
	{"Functional Programming", "functional programming paradigm", "Functional programming treats computation as functions. Functional programming paradigm avoids mutable state."},
	{"Design Patterns", "design patterns software", "Design patterns are reusable solutions. Design patterns software includes Singleton and Factory."},
	{"API Versioning", "API versioning strategy", "API versioning allows backward compatibility. API versioning strategy can use URL or headers."},
	{"Database Indexing", "database indexing performance", "Indexes speed up queries. Database indexing performance is critical for large tables."},
	{"Cryptography Basics", "cryptography encryption decryption", "Cryptography secures data. Cryptography encryption decryption uses keys and algorithms."},
	{"HTTPS TLS", "HTTPS TLS SSL certificates", "HTTPS encrypts web traffic. HTTPS TLS SSL certificates verify identity."},
	{"Load Balancing", "load balancing high availability", "Load balancers distribute traffic. Load balancing high availability prevents single points of failure."},
	{"Caching Strategies", "caching strategy cache invalidation", "Caching improves performance. Caching strategy cache invalidation must be designed carefully."},
	{"Event Sourcing", "event sourcing CQRS", "Event sourcing stores state as events. Event sourcing CQRS separates read and write models."},
	{"Domain-Driven Design", "domain-driven design DDD", "DDD focuses on the business domain. Domain-driven design DDD uses aggregates and bounded contexts."},
	{"Agile Scrum", "Agile Scrum sprint", "Agile is an iterative approach. Agile Scrum sprint typically lasts two weeks."},
	{"Unit Testing", "unit testing mock", "Unit tests verify small units of code. Unit testing mock isolates dependencies."},
	{"Integration Testing", "integration testing E2E", "Integration tests verify components together. Integration testing E2E validates full flows."},
	{"Dependency Injection", "dependency injection DI", "DI provides dependencies from outside. Dependency injection DI improves testability."},
	{"Semantic Search", "semantic search embeddings", "Semantic search uses meaning not just keywords. Semantic search embeddings capture context."},
	{"Keyword Search", "keyword search full-text", "Keyword search matches terms. Keyword search full-text uses inverted indexes."},
	{"Hybrid Search", "hybrid search fusion", "Hybrid combines keyword and semantic. Hybrid search fusion improves recall."},
	{"Vector Database", "vector database similarity", "Vector DBs store embeddings. Vector database similarity uses cosine or dot product."},
	{"Embedding Models", "embedding models sentence", "Embeddings represent text as vectors. Embedding models sentence transform text to dense vectors."},
	{"Chunking Strategy", "chunking strategy overlap", "Chunking splits long documents. Chunking strategy overlap preserves context."},
	{"RAG Overview", "RAG retrieval augmented", "RAG combines retrieval and generation. RAG retrieval augmented grounds LLMs in documents."},
	{"LLM Fine-tuning", "LLM fine-tuning training", "Fine-tuning adapts pre-trained models. LLM fine-tuning training requires labeled data."},
	{"Prompt Engineering", "prompt engineering few-shot", "Prompts guide model behavior. Prompt engineering few-shot uses examples in the prompt."},
	{"OpenAPI Spec", "OpenAPI specification", "OpenAPI describes REST APIs. OpenAPI specification is machine-readable."},
	{"WebSocket Protocol", "WebSocket real-time", "WebSockets enable bidirectional communication. WebSocket real-time is used for chat and live updates."},
	{"Message Queue", "message queue asynchronous", "Message queues decouple producers and consumers. Message queue asynchronous enables scaling."},
	{"Rate Limiting", "rate limiting throttling", "Rate limiting protects APIs. Rate limiting throttling can be per-user or global."},
	{"Circuit Breaker", "circuit breaker resilience", "Circuit breaker stops cascading failures. Circuit breaker resilience pattern fails fast."},
	{"Feature Flags", "feature flags rollout", "Feature flags toggle functionality. Feature flags rollout allows gradual release."},
	{"A/B Testing", "A/B testing experiment", "A/B testing compares variants. A/B testing experiment uses statistical significance."},
	{"Logging Best Practices", "logging structured logs", "Structured logging aids debugging. Logging structured logs use JSON or key-value."},
	{"Distributed Tracing", "distributed tracing spans", "Tracing follows requests across services. Distributed tracing spans show latency breakdown."},
	{"Security Headers", "security headers CORS", "Security headers protect browsers. Security headers CORS control cross-origin requests."},
	{"Input Validation", "input validation sanitization", "Validation rejects bad input. Input validation sanitization prevents injection."},
	{"Password Hashing", "password hashing bcrypt", "Passwords must be hashed. Password hashing bcrypt is resistant to rainbow tables."},
	{"RBAC Permissions", "RBAC role-based access", "RBAC assigns permissions by role. RBAC role-based access control is common in enterprise."},
	{"Audit Logging", "audit logging compliance", "Audit logs record who did what. Audit logging compliance is required in regulated industries."},
	{"Backup Strategy", "backup strategy recovery", "Backups protect against data loss. Backup strategy recovery includes RTO and RPO."},
	{"Disaster Recovery", "disaster recovery DR", "DR plans restore after outages. Disaster recovery DR involves failover and runbooks."},
	{"Scaling Horizontal", "horizontal scaling sharding", "Horizontal scaling adds more nodes. Horizontal scaling sharding partitions data."},
	{"Vertical Scaling", "vertical scaling resources", "Vertical scaling adds CPU or memory. Vertical scaling resources have limits."},
	{"Cost Optimization", "cost optimization cloud", "Cloud costs can grow quickly. Cost optimization cloud uses reserved instances and spot."},
	{"Green Computing", "green computing sustainability", "Green computing reduces environmental impact. Green computing sustainability focuses on efficiency."},
	{"Accessibility", "accessibility WCAG", "Accessibility ensures inclusive design. Accessibility WCAG provides guidelines."},
	{"Internationalization", "internationalization i18n", "i18n supports multiple languages. Internationalization i18n covers locale and formatting."},
	{"Mobile First", "mobile first responsive", "Mobile first designs for small screens first. Mobile first responsive adapts to viewport."},
	{"Progressive Web App", "progressive web app PWA", "PWAs work offline. Progressive web app PWA uses service workers."},
	{"Server-Side Rendering", "server-side rendering SSR", "SSR renders HTML on the server. Server-side rendering SSR improves SEO."},
	{"Static Site Generation", "static site generation SSG", "SSG pre-renders pages at build time. Static site generation SSG is fast and cheap."},
	{"Edge Computing", "edge computing latency", "Edge runs code close to users. Edge computing latency reduces round-trip time."},
	{"Serverless Cold Start", "serverless cold start", "Cold start is the first request delay. Serverless cold start can be mitigated with provisioned concurrency."},
	{"Graph Database", "graph database Neo4j", "Graph DBs store nodes and edges. Graph database Neo4j is used for relationships."},
	{"Time-Series DB", "time-series database", "Time-series DBs optimize for metrics. Time-series database stores values by timestamp."},
	{"Document Store", "document store MongoDB", "Document stores use flexible schemas. Document store MongoDB stores BSON documents."},
	{"Key-Value Store", "key-value store", "Key-value stores are simple and fast. Key-value store is used for caching and sessions."},
	{"CAP Theorem", "CAP theorem consistency", "CAP says you cannot have all three. CAP theorem consistency availability partition tolerance."},
	{"ACID Transactions", "ACID transactions database", "ACID guarantees reliability. ACID transactions database ensure atomicity and isolation."},
	{"Eventually Consistent", "eventually consistent", "Eventually consistent systems converge. Eventually consistent is used in distributed systems."},
	{"CRDT Overview", "CRDT conflict-free", "CRDTs enable conflict-free replication. CRDT conflict-free replicated data types merge without coordination."},
	{"Zero Trust", "zero trust security", "Zero trust assumes breach. Zero trust security verifies every request."},
	{"Defense in Depth", "defense in depth layers", "Multiple layers improve security. Defense in depth layers include network app and data."},
	{"Penetration Testing", "penetration testing pentest", "Pentest simulates attacks. Penetration testing pentest finds vulnerabilities."},
	{"Code Review", "code review pull request", "Code review catches bugs early. Code review pull request is a best practice."},
	{"Documentation", "documentation API docs", "Good documentation helps adoption. Documentation API docs should be up to date."},
	{"Onboarding Guide", "onboarding guide new hires", "Onboarding helps new team members. Onboarding guide new hires covers setup and culture."},
	{"Incident Response", "incident response runbook", "Incidents need a clear process. Incident response runbook defines steps."},
	{"Post-Mortem", "post-mortem blameless", "Post-mortems learn from incidents. Post-mortem blameless focuses on systems not people."},
	{"SLO and SLI", "SLO SLI reliability", "SLOs define target reliability. SLO SLI reliability uses error budget."},
	{"Chaos Engineering", "chaos engineering resilience", "Chaos engineering tests resilience. Chaos engineering resilience uses fault injection."},
	{"Blue-Green Deployment", "blue-green deployment", "Blue-green reduces deployment risk. Blue-green deployment keeps two environments."},
	{"Canary Release", "canary release gradual", "Canary rolls out to a subset. Canary release gradual reduces blast radius."},
	{"Feature Branch", "feature branch workflow", "Feature branches isolate work. Feature branch workflow merges via PR."},
	{"Trunk-Based Development", "trunk-based development", "Trunk-based keeps main always releasable. Trunk-based development uses short-lived branches."},
	{"Refactoring", "refactoring code quality", "Refactoring improves structure. Refactoring code quality preserves behavior."},
}

// BuildCorpus returns a corpus of n pages (n <= len(topics)) split across a few
// sections so slugs carry directories.
func BuildCorpus(n int) *Corpus {
	n = min(max(n, 0), len(topics))
	sections := []string{"guides", "reference", "ops", "patterns"}
	c := &Corpus{}
	for i, t := range topics[:n] {
		section := sections[i%len(sections)]
		name := fmt.Sprintf("page-%03d", i+1)
		slug := section + "/" + name
		c.Pages = append(c.Pages, Page{
			Slug:  slug,
			Path:  filepath.Join(section, name+".md"),
			Topic: t,
		})
		c.TestCases = append(c.TestCases, QueryTestCase{
			Query:        t.Phrase,
			ExpectedSlug: slug,
			Description:  fmt.Sprintf("query %q should rank %s first", t.Phrase, slug),
		})
	}
	return c
}

// Markdown renders the page as a markdown source with front matter.
func (p Page) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "---\ntitle: %q\n---\n", p.Title)
	b.WriteString(p.Content)
	b.WriteString("\n")
	return b.String()
}

// WriteTree writes every page under root.
func (c *Corpus) WriteTree(root string) error {
	for _, p := range c.Pages {
		path := filepath.Join(root, p.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(p.Markdown()), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

func containsPhrase(p Page, phrase string) bool {
	return strings.Contains(p.Title, phrase) || strings.Contains(p.Content, phrase)
}
