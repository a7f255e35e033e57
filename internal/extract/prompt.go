// Package extract turns an aggregated page corpus into structured company
// intelligence with a single generative-model call.
package extract

import "fmt"

const promptTemplate = `You are a VC analyst assistant that extracts structured company intelligence from website content.

Company URL: %s

Scraped Content:
%s

Return ONLY a valid JSON object, no markdown, no backticks, no explanation.
Use this exact schema:
{
  "summary": "1-2 sentence description of what the company does",
  "bullets": ["3-6 key things about the company, product, or traction"],
  "keywords": ["5-10 relevant keywords or technology tags"],
  "signals": [
    {
      "label": "Signal name",
      "value": "What was observed in the content",
      "type": "positive"
    }
  ],
  "sources": []
}

Signal type must be exactly: "positive", "neutral", or "warning"
Infer signals from content:
- Active careers page with open roles → positive
- Recent blog posts or changelog → positive
- Open source repo mentioned → positive
- No about page found → warning
- Thin or generic content → warning
Include 2-4 signals total.`

// BuildPrompt renders the extraction instruction for one company.
func BuildPrompt(companyURL, corpus string) string {
	return fmt.Sprintf(promptTemplate, companyURL, corpus)
}
