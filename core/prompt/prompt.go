// Package prompt builds the message lists sent to the generation backend
// for the initial summary and for each question about the page.
package prompt

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/pagebrief/core"
)

const summarySystem = "You are a highly skilled assistant that specializes in analyzing websites. " +
	"You will be provided with scraped website content including text and images. " +
	"Your task is to generate clear, accurate, and insightful summaries. " +
	"Always focus on main ideas, context, and any key details the user should know. " +
	"If there are images, incorporate their captions into the summary in a natural way. " +
	"If the text contains times, dates, or locations, highlight them. " +
	"Keep the summary factual and concise, while covering the most important points."

const summaryRequest = "Now, please provide a structured summary that includes:\n" +
	"1. 📌 Main topic and purpose of the website/article.\n" +
	"2. 📰 Key facts and events mentioned.\n" +
	"3. 🖼️ Important details from the images/captions.\n" +
	"4. 📅 Any dates, names, or locations if available.\n" +
	"5. ✅ A concise conclusion or takeaway.\n\n" +
	"Format the response in clean markdown with short sections or bullet points."

const questionSystem = "You are a helpful AI assistant that answers user questions " +
	"based only on the provided website content (text and images). " +
	"Do not make up information that is not present. " +
	"If the answer cannot be found in the content, say so clearly. " +
	"Always use a clear, structured explanation and reference both text and images if relevant. " +
	"Format the response in markdown for readability."

const questionRequest = "Please answer in the following structured way:\n" +
	"1. 📖 Direct answer to the question (based only on the content).\n" +
	"2. 🔎 Supporting details from the text.\n" +
	"3. 🖼️ If applicable, relevant details from the images/captions.\n" +
	"4. ✅ Short concluding remark.\n"

// Context is the assembled page content injected into every prompt.
type Context struct {
	Text   string
	Images string
}

// block renders the text and image sections shared by both prompts.
func (c Context) block(intro string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", intro)
	fmt.Fprintf(&b, "--- TEXT CONTENT START ---\n%s\n--- TEXT CONTENT END ---\n\n", c.Text)
	fmt.Fprintf(&b, "--- IMAGE CAPTIONS START ---\n%s\n--- IMAGE CAPTIONS END ---\n\n", c.Images)
	return b.String()
}

// Summary returns the messages requesting a structured page summary.
func Summary(c Context) []core.Message {
	return []core.Message{
		{Role: core.RoleSystem, Content: summarySystem},
		{Role: core.RoleUser, Content: c.block("Here is the content scraped from the website:") + summaryRequest},
	}
}

// Question returns the messages for one question about the page. Earlier
// turns in history are placed between the system and user messages; pass
// nil to ask from the page content alone.
func Question(c Context, question string, history []core.Message) []core.Message {
	user := c.block("Here is the scraped website content:") +
		fmt.Sprintf("The user’s question is:\n❓ %s\n\n", question) +
		questionRequest

	msgs := make([]core.Message, 0, len(history)+2)
	msgs = append(msgs, core.Message{Role: core.RoleSystem, Content: questionSystem})
	for _, m := range history {
		if m.Role == core.RoleSystem {
			continue
		}
		msgs = append(msgs, m)
	}
	return append(msgs, core.Message{Role: core.RoleUser, Content: user})
}
