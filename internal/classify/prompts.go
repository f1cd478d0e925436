package classify

import (
	"fmt"
	"strings"

	"github.com/januspriv/janus/internal/model"
)

func characteristicLines(chars []model.Characteristic) string {
	var b strings.Builder
	for _, c := range chars {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}

func historyLines(history []model.ChatMessage) string {
	if len(history) == 0 {
		return "No previous messages in this conversation."
	}
	var b strings.Builder
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Truncate().Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// detectPrompt builds the system prompt for outbound screening. With an
// identity the model flags only escalation beyond the profile; without one it
// flags everything that could identify the user.
func detectPrompt(identity *model.Identity, history []model.ChatMessage) string {
	if identity != nil && len(identity.Characteristics) > 0 {
		return fmt.Sprintf(`You are a privacy protection assistant. The user has a privacy profile that defines what personal information they're comfortable sharing in this context.

PRIVACY PROFILE: %q
Allowed information to share:
%s

CHAT HISTORY (what's already been shared in this conversation):
%s

Your task: Flag ONLY information that reveals MORE about the user than what's defined in their allowed characteristics OR what they've already shared in this conversation.

Rules:
1. Information matching the profile's characteristics is ALLOWED
2. More specific information than what's in the profile should be flagged (profile "Location: Canada" means mentioning "Toronto" gets flagged)
3. If something was already shared in the chat history, don't flag it again
4. Focus on information ESCALATION - what's new and more revealing than the profile allows
5. Information not covered by any characteristic should be flagged

Return a JSON array. Each item must have:
- "text": the exact phrase/word that reveals information
- "type": "location", "personal_detail", "identifier", "contact_info", etc.
- "reason": clear explanation of what this reveals beyond the allowed profile
- "severity": "high" (direct identifiers not in profile), "medium" (more specific than profile), "low" (weak clues)

Return ONLY the JSON array, nothing else. Return [] if the message stays within the bounds of the allowed characteristics.`,
			identity.Name, characteristicLines(identity.Characteristics), historyLines(history))
	}

	return `You are a highly sensitive privacy protection assistant. Your job is to catch ALL information that could reveal someone's identity or location, including subtle hints and contextual clues.

IMPORTANT: Be extremely cautious. If something MIGHT reveal private information, flag it.

Categories to detect:
1. Direct identifiers: names, emails, phone numbers, addresses, government IDs
2. Location clues: cities, regions, schools, workplaces, landmarks, colloquial references ("Big Apple", "Down Under")
3. Personal details: age, job titles, company names, family member names, medical conditions
4. Identifying patterns: routines, unique events with dates, combinations of facts
5. Digital identifiers: usernames, IP addresses, account numbers, social media handles
6. Temporal information: dates of personal events, birthdays, anniversaries
7. Financial information: salary, balances, transactions, institutions
8. Relationships: names of friends, family, colleagues, partners
9. Cultural/contextual clues: phrases that imply location, background, or identity

Return a JSON array. Each item must have:
- "text": the exact phrase/word that reveals information
- "type": "location", "personal_detail", "identifier", "contact_info", etc.
- "reason": clear explanation of what this reveals and why it's sensitive
- "severity": "high" (direct identifiers), "medium" (strong contextual clues), "low" (weak clues)

CRITICAL: If you're unsure whether something is sensitive, FLAG IT ANYWAY.

Return ONLY the JSON array, nothing else. If truly nothing sensitive, return []`
}

// rewritePrompt builds the system prompt for the sanitizing rewrite. The
// contract: only the flagged items change; no bracket placeholders, ever.
func rewritePrompt(identity *model.Identity) string {
	identityContext := ""
	if identity != nil && len(identity.Characteristics) > 0 {
		var allowed []string
		for _, c := range identity.Characteristics {
			allowed = append(allowed, fmt.Sprintf("%s: %s", c.Name, c.Value))
		}
		identityContext = fmt.Sprintf("\n\nIMPORTANT: The user has a privacy profile allowing these details: %s. When rewriting, you may keep information that matches these allowed characteristics, but remove or generalize the flagged items that go beyond what's allowed.",
			strings.Join(allowed, ", "))
	}

	return fmt.Sprintf(`You are a privacy protection assistant. Rewrite the user's message to remove or anonymize the specified sensitive information while maintaining the core meaning and intent of the message.

CRITICAL RULES:
1. NEVER use placeholders like [name], [location], [redacted], etc.
2. Either omit the sensitive information entirely or replace it with natural, generic terms
3. Make the message flow naturally without obvious gaps
4. Replace specific locations with general terms ("from India" becomes "from South Asia" or is removed)
5. Remove or generalize personal identifiers completely
6. Keep the message natural and conversational
7. Maintain the original tone and style
8. Leave every part of the message that is not flagged unchanged
9. If removing something makes the sentence awkward, rephrase only that sentence naturally%s

Return ONLY the rewritten message text, nothing else.`, identityContext)
}

func rewriteRequest(text string, items []model.DetectedItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original message: %q\n\nRemove these sensitive items:\n", text)
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %q (%s)\n", i+1, it.Text, it.Reason)
	}
	return b.String()
}

// auditPrompt builds the system prompt for inbound response auditing.
func auditPrompt(identity *model.Identity) string {
	return fmt.Sprintf(`You are a privacy auditor. The user presents themselves under a privacy profile; the assistant's response below may reveal that the assistant knows, remembers, or has inferred personal information beyond that profile.

PRIVACY PROFILE: %q
The ONLY facts the assistant should know about the user:
%s

Previously asserted decoy facts (these are fine for the assistant to believe):
%s

Your task: list every piece of personal information about the user that the response shows the assistant knows and that is NOT covered by the profile or the decoys. Look for direct statements, personalized suggestions, and implicit assumptions.

Return a JSON array. Each item must have:
- "known_info": the specific fact the assistant appears to know
- "category": a short attribute name like "location", "occupation", "age"
- "reason": the phrase in the response that reveals the knowledge
- "severity": "high" (precise identifying facts), "medium" (strong inferences), "low" (weak inferences)

Return ONLY the JSON array, nothing else. Return [] if the response stays within the profile.`,
		identity.Name,
		orNone(characteristicLines(identity.Characteristics)),
		orNone(characteristicLines(identity.FakeCharacteristics)))
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

// composeCorrectionPrompt asks for one conversational correction message.
// The recipient has zero prior context, so every item is restated; the
// message must never hint that an obfuscation strategy is in play.
func composeCorrectionPrompt() string {
	return `You write a single short conversational message from the user to an AI assistant, correcting things the assistant wrongly believes about them.

RULES:
1. The message must be fully self-contained: restate every item explicitly, assume the reader remembers nothing
2. For DENY items: plainly state the fact is not true, offer no replacement
3. For REPLACE items: state the given replacement value as the truth, naturally and confidently
4. One flowing paragraph, the tone of a person clarifying a misunderstanding
5. NEVER mention privacy, profiles, corrections, strategies, or that anything is deliberate
6. Keep replacement values internally consistent with each other

After the message, also return the replacement facts you asserted.

Return ONLY a JSON object:
{"message": "<the message>", "fake_values": [{"name": "<category>", "value": "<asserted value>"}]}`
}

func composeCorrectionRequest(plan model.CorrectionPlan) string {
	var b strings.Builder
	b.WriteString("DENY items (state these are not true):\n")
	if len(plan.ToDeny) == 0 {
		b.WriteString("(none)\n")
	}
	for _, v := range plan.ToDeny {
		fmt.Fprintf(&b, "- %s: %q\n", v.Category, v.KnownInfo)
	}
	b.WriteString("\nREPLACE items (assert a plausible different value):\n")
	if len(plan.ToPollute) == 0 {
		b.WriteString("(none)\n")
	}
	for _, v := range plan.ToPollute {
		fmt.Fprintf(&b, "- %s: currently believed to be %q, assert something else\n", v.Category, v.KnownInfo)
	}
	return b.String()
}

// composeSwitchPrompt handles the identity-switch correction: overlaps become
// contradictions with the new value, denials become plain retractions.
func composeSwitchPrompt() string {
	return `You write a single short conversational message from the user to an AI assistant, updating things the assistant believes about them.

RULES:
1. The message must be fully self-contained: restate every item explicitly, assume the reader remembers nothing
2. For CONTRADICT items: state that the old value is wrong and the new value is correct
3. For RETRACT items: plainly state the old fact is not true, offer no replacement
4. One flowing paragraph, the tone of a person clarifying a misunderstanding
5. NEVER mention identities, profiles, switching, or that anything is deliberate

Return ONLY the message text, nothing else.`
}

func composeSwitchRequest(overlaps []model.Overlap, denials []model.DenialOnly) string {
	var b strings.Builder
	b.WriteString("CONTRADICT items:\n")
	if len(overlaps) == 0 {
		b.WriteString("(none)\n")
	}
	for _, o := range overlaps {
		fmt.Fprintf(&b, "- %s: not %q, actually %q\n", o.Name, o.OldValue, o.NewValue)
	}
	b.WriteString("\nRETRACT items:\n")
	if len(denials) == 0 {
		b.WriteString("(none)\n")
	}
	for _, d := range denials {
		fmt.Fprintf(&b, "- %s: %q is not true\n", d.Name, d.Value)
	}
	return b.String()
}

// checkContextPrompt decides whether a prompt needs identity context and, if
// so, which characteristics are actually relevant to it.
func checkContextPrompt(identity *model.Identity) string {
	return fmt.Sprintf(`You decide whether a user's prompt to an AI assistant would produce a noticeably better, more persona-consistent answer if it carried a little context about the user.

USER PROFILE: %q
Available characteristics:
%s

Rules:
1. Only add context when the prompt genuinely depends on who the user is (recommendations, advice, anything localized or personal)
2. Include ONLY the characteristics relevant to this specific prompt, never the whole profile
3. If context helps, produce the augmented prompt: the original text with a leading parenthetical like "(For context: ...) " containing just the relevant facts
4. If the prompt is self-contained, no context is needed

Return ONLY a JSON object:
{"needs_context": true|false, "augmented_prompt": "<augmented or original prompt>", "added_context": "<the parenthetical, or empty>", "reason": "<one line>"}`,
		identity.Name, characteristicLines(identity.Characteristics))
}

// extractPrompt pulls attribute/value pairs from a free-text identity prompt.
func extractPrompt(existing []model.Characteristic) string {
	return fmt.Sprintf(`Extract personal characteristics from the user's self-description as attribute/value pairs.

Already captured (do not repeat these attribute names):
%s

Rules:
1. Short attribute names ("Location", "Occupation", "Age"), concise values
2. Only facts actually stated, no inferences
3. Skip any attribute name already captured

Return ONLY a JSON array: [{"name": "<attribute>", "value": "<value>"}]`,
		orNone(characteristicLines(existing)))
}

// summarizePrompt writes a person description from characteristics.
func summarizePrompt(name string) string {
	return fmt.Sprintf(`Create a concise description of a person with the following characteristics.

Identity Name: %s

Write a description that naturally incorporates these attributes. The description should sound like it's describing a real person, not a list, but don't be too poetic. Return ONLY the description text.`, name)
}

// decoysPrompt proposes plausible false values for real characteristics.
func decoysPrompt() string {
	return `For each real characteristic below, propose a plausible FALSE value that could be asserted instead of the real one.

Rules:
1. Decoys must be believable and internally consistent with each other
2. Decoys must be clearly different from the real values
3. Keep the same attribute names

Return ONLY a JSON array: [{"name": "<attribute>", "value": "<decoy value>"}]`
}
