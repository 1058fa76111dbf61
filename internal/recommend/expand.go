package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/LJTian/NewsWave/internal/profile"
)

const (
	expandClientTimeout    = 10 * time.Second
	expandMaxResponseBytes = 256 * 1024
	maxExpandedTopics      = 5
)

// TopicExpander 调用 OpenAI 兼容接口，把用户的高权重分类 / 关键词
// 扩展成相关话题短语。纯增强能力：失败、超时、返回格式不对都只产出
// 空列表，绝不影响调用方。
type TopicExpander struct {
	BaseURL string
	APIKey  string
	Model   string

	client *http.Client
}

func NewTopicExpander(baseURL, apiKey, model string) *TopicExpander {
	return &TopicExpander{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		client:  &http.Client{Timeout: expandClientTimeout},
	}
}

func (t *TopicExpander) Configured() bool {
	return t.APIKey != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Expand 生成至多 5 个相关话题短语；任何失败都返回 nil
func (t *TopicExpander) Expand(ctx context.Context, p profile.Profile) []string {
	if !t.Configured() {
		return nil
	}

	prompt := fmt.Sprintf(
		"A listener follows these news categories: %s. Frequent title keywords: %s. Declared interests: %s. "+
			"Reply with a JSON array of at most 5 short related news topic phrases. JSON array only, no prose.",
		strings.Join(profile.TopN(p.CategoryWeights, 3), ", "),
		strings.Join(p.Keywords, ", "),
		strings.Join(p.Interests, ", "),
	)

	body, err := json.Marshal(chatRequest{
		Model:    t.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		log.Printf("topic expansion: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("topic expansion: status %d", resp.StatusCode)
		return nil
	}

	var out chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, expandMaxResponseBytes)).Decode(&out); err != nil {
		log.Printf("topic expansion: decode error: %v", err)
		return nil
	}
	if len(out.Choices) == 0 {
		return nil
	}

	return parseTopicArray(out.Choices[0].Message.Content)
}

// parseTopicArray 解析模型输出的 JSON 字符串数组，兼容 markdown 代码块包裹
func parseTopicArray(content string) []string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var topics []string
	if err := json.Unmarshal([]byte(content), &topics); err != nil {
		log.Printf("topic expansion: malformed output: %v", err)
		return nil
	}

	out := make([]string, 0, maxExpandedTopics)
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		out = append(out, topic)
		if len(out) == maxExpandedTopics {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
