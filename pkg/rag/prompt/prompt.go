package prompt

import (
	"fmt"
	"strings"
)

// Reserved phrases for the search-decision prompt. Matching is a forgiving
// case-insensitive prefix check on the leading word.
const (
	YesSearch = "Yes Search"
	NoSearch  = "No Search"
)

const requireSearchSystemText = `You are a large language model whose only job is to determine if the system should call an external search tool to be able to answer the user's last message.

Respond with "` + NoSearch + `" if:
- there is sufficient information in the chat history to fully answer the user's query
- the query is conversational and does not rely on any specific stored knowledge

Respond with "` + YesSearch + `" if:
- additional knowledge about entities, processes, or problems could lead to a better answer
- there is any uncertainty about what the user is referring to

Respond with EXACTLY and ONLY "` + YesSearch + `" or "` + NoSearch + `"`

// RequireSearchText wraps the user's message with the yes/no search-decision
// instructions.
func RequireSearchText(query string) string {
	return query + "\n\n" + requireSearchSystemText
}

// AnswerAffirmsSearch checks the model's search decision. Only the leading
// word of the reserved phrase is required, case-insensitively.
func AnswerAffirmsSearch(modelOutput string) bool {
	leading := strings.ToLower(strings.SplitN(YesSearch, " ", 2)[0])
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(modelOutput)), leading)
}

const citationReminder = `Cite relevant statements INLINE using the format [1], [2], [3], etc. to reference the document number. DO NOT provide any links following the citations.`

// UserPromptWithContext folds formatted document context into the final
// user-role prompt segment.
func UserPromptWithContext(contextText, query string) string {
	return fmt.Sprintf(`CONTEXT:
%s

%s

FINAL QUERY:
%s`, contextText, citationReminder, query)
}

// Tool describes one dispatchable tool in the structured prompt.
type Tool struct {
	Name        string
	Description string
}

const toolTemplate = `TOOLS
------
You can use tools to look up information that may be helpful in answering the user's original question. The available tools are:

%s

RESPONSE FORMAT INSTRUCTIONS
----------------------------
When responding to me, please output a response in one of two formats:

**Option 1:**
Use this if you want to use a tool. Markdown code snippet formatted in the following schema:

%s

**Option 2:**
Use this if you want to respond directly to the user. Markdown code snippet formatted in the following schema:

%s`

const toolCallSchema = "```json\n{\n    \"action\": string, \\\\ The action to take. Must be one of: %s\n    \"action_input\": string \\\\ The input to the action\n}\n```"

const finalAnswerSchema = "```json\n{\n    \"action\": \"Final Answer\",\n    \"action_input\": string \\\\ What you want to say to the user\n}\n```"

// ToolSystemText builds the system segment for a tool-enabled turn: the
// persona's own instructions followed by the structured action protocol.
func ToolSystemText(systemText string, available []Tool) string {
	overviews := make([]string, len(available))
	names := make([]string, len(available))
	for i, t := range available {
		overviews[i] = fmt.Sprintf("> %s: %s", t.Name, t.Description)
		names[i] = t.Name
	}
	callSchema := fmt.Sprintf(toolCallSchema, strings.Join(names, ", "))
	section := fmt.Sprintf(toolTemplate, strings.Join(overviews, "\n"), callSchema, finalAnswerSchema)
	if systemText == "" {
		return section
	}
	return systemText + "\n\n" + section
}

// ToolUserText wraps the user's message for a tool-enabled turn, with the
// persona hint appended when present.
func ToolUserText(query, hint string) string {
	text := fmt.Sprintf(`USER'S INPUT
--------------------
Here is the user's input (remember to respond with a markdown code snippet of a json blob with a single action, and NOTHING else):

%s`, query)
	if hint != "" {
		text += "\n\nHint: " + hint
	}
	return text
}

// ToolFollowupText synthesizes the user turn carrying a tool's output back
// to the model, demanding a final answer this time.
func ToolFollowupText(toolOutput, hint string) string {
	text := fmt.Sprintf(`TOOL RESPONSE:
---------------------
%s

USER'S INPUT
--------------------
Okay, so what is the response to my last comment? If using information obtained from the tools you must mention it explicitly without mentioning the tool names - I have forgotten all TOOL RESPONSES! If the tool response is not useful, ignore it completely.`, toolOutput)
	if hint != "" {
		text += "\nHint: " + hint
	}
	text += "\nIMPORTANT! You MUST respond with a markdown code snippet of a json blob with a single action, and NO other text."
	return text
}
