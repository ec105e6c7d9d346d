// Package persona models discovered experts and builds the tutor prompts
// that let a language model teach in their voice.
package persona

import (
	"fmt"
	"sort"
	"strings"
)

// Persona represents an expert the learner can study with. Discovery fills
// Name and Description; the Wikipedia enrichment step fills Bio, Facts, and
// ImageURL when available.
type Persona struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Region      string            `yaml:"region,omitempty" json:"region,omitempty"`
	Category    string            `yaml:"category,omitempty" json:"category,omitempty"`
	Bio         string            `yaml:"bio,omitempty" json:"bio,omitempty"`
	Facts       map[string]string `yaml:"facts,omitempty" json:"facts,omitempty"`
	ImageURL    string            `yaml:"image_url,omitempty" json:"image_url,omitempty"`

	// Custom marks personas the learner typed in themselves rather than
	// picked from discovery results.
	Custom bool `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// String returns "Name — Description" for display and logs.
func (p *Persona) String() string {
	if p.Description == "" {
		return p.Name
	}
	return p.Name + " — " + p.Description
}

// Level represents the learner's self-reported stage.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// PromptOptions carries the session parameters for prompt generation.
type PromptOptions struct {
	Topic    string // what the learner wants to study
	Level    Level  // defaults to beginner
	Username string // defaults to "Student"
}

// BuildSystemPrompt generates the tutor system prompt for this persona.
// Custom personas get a variant that leans on the model's own knowledge of
// the figure, since there is no curated description to anchor on.
func (p *Persona) BuildSystemPrompt(opts PromptOptions) string {
	level := opts.Level
	if level == "" {
		level = LevelBeginner
	}
	username := opts.Username
	if username == "" {
		username = "Student"
	}

	if p.Custom {
		return p.buildCustomPrompt(opts.Topic, level, username)
	}
	return p.buildStandardPrompt(opts.Topic, level, username)
}

func (p *Persona) buildStandardPrompt(topic string, level Level, username string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are now %s. You are a PERSONAL TUTOR, not an AI assistant.\n", p.Name)
	fmt.Fprintf(&sb, "The student's name is '%s'. Use it occasionally to make the conversation personal and engaging.\n\n", username)

	sb.WriteString("TEACHING PHILOSOPHY:\n")
	sb.WriteString("1. Be conversational, practical, and human-like\n")
	sb.WriteString("2. Use simple, real-world analogies that anyone can understand\n")
	sb.WriteString("3. Explain complex ideas in 2-3 simple steps maximum\n")
	sb.WriteString("4. Sound like you are having a coffee chat with a curious student\n")
	sb.WriteString("5. NEVER use corporate or formal AI language\n\n")

	fmt.Fprintf(&sb, "TOPIC: %s\n", topic)
	fmt.Fprintf(&sb, "STUDENT LEVEL: %s\n", level)
	if p.Region != "" && p.Region != "Global" {
		fmt.Fprintf(&sb, "REGION: your background and perspective are rooted in %s\n", p.Region)
	}
	sb.WriteString("\n")

	p.writeBackground(&sb)

	sb.WriteString("CRITICAL RULES:\n")
	fmt.Fprintf(&sb, "1. Start teaching immediately - no introductions like \"As %s...\"\n", p.Name)
	sb.WriteString("2. Use your persona unique thinking style and famous phrases\n")
	sb.WriteString("3. Break the concept into bite-sized, practical steps\n")
	sb.WriteString("4. End EVERY response with a one-line curiosity hook question\n")
	sb.WriteString("5. Check understanding naturally in conversation\n")
	fmt.Fprintf(&sb, "6. Address the student by name ('%s') naturally, but don't overdo it.\n\n", username)

	sb.WriteString("CURIOSITY HOOK EXAMPLES:\n")
	fmt.Fprintf(&sb, "- \"Make sense so far, %s?\"\n", username)
	sb.WriteString("- \"What part surprised you most?\"\n")
	sb.WriteString("- \"Can you guess what happens next?\"\n")
	sb.WriteString("- \"Where do you think we should explore next?\"\n")
	sb.WriteString("- \"Does that click for you?\"\n\n")

	sb.WriteString("Remember: You are a personal tutor having a friendly chat!\n")

	return sb.String()
}

func (p *Persona) buildCustomPrompt(topic string, level Level, username string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are now embodying %s. You are a PERSONAL TUTOR, not an AI assistant.\n", p.Name)
	fmt.Fprintf(&sb, "The student's name is '%s'. Use it occasionally to make the conversation personal and engaging.\n\n", username)

	fmt.Fprintf(&sb, "IMPORTANT: You have comprehensive knowledge about %s from your training data.\n", p.Name)
	sb.WriteString("Use their authentic voice, expertise area, and famous speaking style.\n\n")

	fmt.Fprintf(&sb, "TOPIC: %s\n", topic)
	fmt.Fprintf(&sb, "STUDENT LEVEL: %s\n\n", level)

	p.writeBackground(&sb)

	sb.WriteString("TEACHING APPROACH:\n")
	sb.WriteString("1. Draw upon your extensive knowledge of the persona and their real expertise\n")
	sb.WriteString("2. Use their authentic communication style and famous phrases\n")
	sb.WriteString("3. Teach from their actual domain of knowledge and experience\n")
	sb.WriteString("4. Be conversational and practical with real-world examples\n\n")

	sb.WriteString("CRITICAL RULES:\n")
	sb.WriteString("1. Start teaching immediately - no introductions\n")
	sb.WriteString("2. Use the persona authentic voice and expertise\n")
	sb.WriteString("3. Break concepts into simple, understandable steps\n")
	sb.WriteString("4. End EVERY response with a curiosity question\n")
	sb.WriteString("5. Sound like you are having a friendly chat\n")
	fmt.Fprintf(&sb, "6. Address the student by name ('%s') naturally, but don't overdo it.\n\n", username)

	fmt.Fprintf(&sb, "Remember: You ARE %s teaching in your unique style!\n", p.Name)

	return sb.String()
}

// writeBackground adds the enrichment section when biographical data is
// available. Kept short so it grounds the voice without dominating the
// prompt.
func (p *Persona) writeBackground(sb *strings.Builder) {
	if p.Bio == "" && len(p.Facts) == 0 {
		return
	}

	sb.WriteString("BACKGROUND (for grounding, do not recite):\n")
	if p.Bio != "" {
		sb.WriteString(truncateRunes(p.Bio, 600))
		sb.WriteString("\n")
	}
	for _, key := range sortedKeys(p.Facts) {
		fmt.Fprintf(sb, "- %s: %s\n", key, p.Facts[key])
	}
	sb.WriteString("\n")
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// sortedKeys keeps the facts section deterministic across builds.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
