// Package catalog holds the static table of invokable upstream models. It is
// pure data: each entry maps a public model identifier to its provider, its
// upstream routing information, a default persona, and advisory capability
// flags. The catalog is immutable after process start and safe to share
// across concurrent requests.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Provider identifies an upstream language-model vendor. Both providers are
// reached through an OpenAI-compatible completion interface.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderVolcengine Provider = "volcengine"
)

// DefaultModelID is the model used when a chat request names neither an
// agent nor a model.
const DefaultModelID = "doubao-pro-32k"

// imageModelPrefix marks image-generation-only models. They cannot serve the
// conversational endpoint and the chat pipeline short-circuits them with an
// informative synthetic reply instead of a confusing upstream error.
const imageModelPrefix = "doubao-seedream-"

// Capabilities are advisory metadata about what a model supports. The
// pipeline does not enforce them.
type Capabilities struct {
	Streaming bool `json:"streaming"`
	Tools     bool `json:"tools"`
	Vision    bool `json:"vision"`
	JSON      bool `json:"json"`
}

// Persona is the default agent bound to a catalog entry: a display name, a
// system prompt, and a sampling temperature.
type Persona struct {
	Name         string  `json:"name"`
	SystemPrompt string  `json:"systemPrompt"`
	Temperature  float64 `json:"temperature"`
}

// Entry describes one invokable model. UpstreamModel is the literal upstream
// model name for direct providers; for Volcengine entries it is empty and
// EndpointEnvVar names the environment variable holding the per-deployment
// endpoint identifier.
type Entry struct {
	ModelID        string       `json:"modelId"`
	Provider       Provider     `json:"provider"`
	DisplayName    string       `json:"displayName"`
	Summary        string       `json:"summary"`
	RecommendedFor []string     `json:"recommendedFor"`
	Capabilities   Capabilities `json:"capabilities"`
	DefaultAgent   Persona      `json:"defaultAgent"`

	UpstreamModel  string `json:"-"`
	EndpointEnvVar string `json:"-"`
}

var entries = []Entry{
	{
		ModelID:        "doubao-pro-32k",
		Provider:       ProviderVolcengine,
		DisplayName:    "Doubao Pro 32k",
		Summary:        "中文长文本分析/总结/创作，适合长上下文与结构化输出。",
		RecommendedFor: []string{"长文总结", "报告撰写", "知识整理", "复杂说明文"},
		Capabilities:   Capabilities{Streaming: true, Tools: true, Vision: false, JSON: true},
		DefaultAgent: Persona{
			Name:         "中文长文本专家",
			SystemPrompt: "你是中文长文本处理专家，擅长分析、总结和创作长篇内容。回答时注重逻辑性和条理性，优先使用中文，必要时给出英文术语。",
			Temperature:  0.3,
		},
		EndpointEnvVar: "VOLCENGINE_MODEL_DOUBAO_PRO",
	},
	{
		ModelID:        "deepseek-r1-math",
		Provider:       ProviderVolcengine,
		DisplayName:    "DeepSeek R1 - 数学",
		Summary:        "强推理，适合数学推导、证明、严谨步骤与验算。",
		RecommendedFor: []string{"数学题", "公式推导", "证明", "严谨解题步骤"},
		Capabilities:   Capabilities{Streaming: true, Tools: true, Vision: false, JSON: true},
		DefaultAgent: Persona{
			Name:         "数学解题专家",
			SystemPrompt: "你是数学解题专家，擅长解决各类数学问题。回答时：\n1. 先理解题目，明确已知条件和求解目标\n2. 给出清晰的解题思路和步骤\n3. 使用 LaTeX 公式展示计算过程\n4. 验证答案的合理性\n5. 必要时提供多种解法",
			Temperature:  0.1,
		},
		EndpointEnvVar: "VOLCENGINE_MODEL_DEEPSEEK_R1",
	},
	{
		ModelID:        "deepseek-r1-code",
		Provider:       ProviderVolcengine,
		DisplayName:    "DeepSeek R1 - 代码",
		Summary:        "强推理，适合阅读工程代码、定位 bug、给出重构与性能建议。",
		RecommendedFor: []string{"代码审查", "Bug 定位", "重构建议", "性能优化"},
		Capabilities:   Capabilities{Streaming: true, Tools: true, Vision: false, JSON: true},
		DefaultAgent: Persona{
			Name:         "代码调试专家",
			SystemPrompt: "你是代码调试和优化专家，擅长发现bug、性能瓶颈和设计问题。回答时：\n1. 仔细分析代码逻辑和潜在问题\n2. 指出错误原因和改进建议\n3. 提供优化后的代码示例\n4. 解释为什么这样修改更好\n5. 考虑边界情况和性能影响",
			Temperature:  0.1,
		},
		EndpointEnvVar: "VOLCENGINE_MODEL_DEEPSEEK_R1",
	},
	{
		ModelID:        "deepseek-r1-logic",
		Provider:       ProviderVolcengine,
		DisplayName:    "DeepSeek R1 - 推理",
		Summary:        "强逻辑推理，适合论证、拆解复杂问题、识别漏洞与给出结论。",
		RecommendedFor: []string{"逻辑推演", "论证与反驳", "复杂问题拆解", "决策分析"},
		Capabilities:   Capabilities{Streaming: true, Tools: true, Vision: false, JSON: true},
		DefaultAgent: Persona{
			Name:         "逻辑推理助手",
			SystemPrompt: "你是逻辑推理专家，擅长分析复杂问题、找出逻辑漏洞、推导结论。回答时：\n1. 明确前提和假设\n2. 展示完整的推理链条\n3. 识别可能的谬误和不合理之处\n4. 给出严谨的论证过程\n5. 提供多角度的思考方式",
			Temperature:  0.15,
		},
		EndpointEnvVar: "VOLCENGINE_MODEL_DEEPSEEK_R1",
	},
	{
		ModelID:        "deepseek-v3-general",
		Provider:       ProviderVolcengine,
		DisplayName:    "DeepSeek V3 - 通用",
		Summary:        "通用均衡，适合日常问答、信息检索式对话与一般任务咨询。",
		RecommendedFor: []string{"日常问答", "知识解释", "轻量写作", "头脑风暴"},
		Capabilities:   Capabilities{Streaming: true, Tools: true, Vision: false, JSON: true},
		DefaultAgent: Persona{
			Name:         "日常问答助手",
			SystemPrompt: "你是日常问答助手，能够高效处理各类常见问题。回答简洁明了，既保证准确性又注重实用性。适合日常咨询、信息查询和一般性建议。",
			Temperature:  0.4,
		},
		EndpointEnvVar: "VOLCENGINE_MODEL_DEEPSEEK_V3",
	},
	{
		ModelID:        "deepseek-v3-writer",
		Provider:       ProviderVolcengine,
		DisplayName:    "DeepSeek V3 - 写作",
		Summary:        "偏表达与文风，适合中文写作、润色、扩写与改写。",
		RecommendedFor: []string{"文章润色", "文案写作", "扩写改写", "风格调整"},
		Capabilities:   Capabilities{Streaming: true, Tools: true, Vision: false, JSON: true},
		DefaultAgent: Persona{
			Name:         "中文写作助手",
			SystemPrompt: "你是专业的中文写作助手，擅长各类文体创作和改写。能帮助用户：\n1. 撰写各类文章（说明文、议论文、叙事文等）\n2. 润色和优化文字表达\n3. 提供写作思路和大纲\n4. 改写和扩写内容\n5. 校对语法和用词",
			Temperature:  0.6,
		},
		EndpointEnvVar: "VOLCENGINE_MODEL_DEEPSEEK_V3",
	},
	{
		ModelID:        "deepseek-v3-agent",
		Provider:       ProviderVolcengine,
		DisplayName:    "DeepSeek V3 - Agent",
		Summary:        "偏任务执行，适合任务拆解、多步执行、工具协作式对话。",
		RecommendedFor: []string{"任务规划", "步骤化执行", "工作流拆解", "多轮协作"},
		Capabilities:   Capabilities{Streaming: true, Tools: true, Vision: false, JSON: true},
		DefaultAgent: Persona{
			Name:         "智能Agent助手",
			SystemPrompt: "你是智能Agent助手，能够理解复杂任务并分步执行。擅长：\n1. 任务拆解和规划\n2. 多步骤问题解决\n3. 信息整合和总结\n4. 工具调用和协作\n5. 持续对话和上下文理解",
			Temperature:  0.3,
		},
		EndpointEnvVar: "VOLCENGINE_MODEL_DEEPSEEK_V3",
	},
	{
		ModelID:        "doubao-seedream-artist",
		Provider:       ProviderVolcengine,
		DisplayName:    "Seedream 4.5 - 绘画",
		Summary:        "图像生成（文生图/图生图）；不支持 /chat 对话流式。",
		RecommendedFor: []string{"文生图", "图生图", "艺术创作", "风格化设计"},
		Capabilities:   Capabilities{Streaming: true, Tools: true, Vision: true, JSON: true},
		DefaultAgent: Persona{
			Name:         "AI绘画创作师",
			SystemPrompt: "你是AI绘画创作师，精通图像生成和艺术创作。你能：\n1. 理解用户的创作意图，生成高质量图像\n2. 提供专业的构图、配色和风格建议\n3. 支持文生图、图生图、多图融合\n4. 精准控制画面细节（人脸、小字、排版等）\n5. 帮助用户实现艺术创意和视觉表达",
			Temperature:  0.7,
		},
		EndpointEnvVar: "VOLCENGINE_MODEL_DOUBAO_SEEDREAM",
	},
	{
		ModelID:        "doubao-seedream-designer",
		Provider:       ProviderVolcengine,
		DisplayName:    "Seedream 4.5 - 设计",
		Summary:        "图像生成（界面/海报/视觉设计）；不支持 /chat 对话流式。",
		RecommendedFor: []string{"UI 设计稿", "海报", "视觉素材", "配色/排版"},
		Capabilities:   Capabilities{Streaming: true, Tools: true, Vision: true, JSON: true},
		DefaultAgent: Persona{
			Name:         "UI设计助手",
			SystemPrompt: "你是UI/UX设计助手，专注于界面和视觉设计。你能帮助：\n1. 生成界面设计稿和原型\n2. 提供配色方案和排版建议\n3. 创建图标、插图和视觉元素\n4. 优化用户体验和视觉层次\n5. 生成多种设计方案供选择",
			Temperature:  0.6,
		},
		EndpointEnvVar: "VOLCENGINE_MODEL_DOUBAO_SEEDREAM",
	},
	{
		ModelID:        "gpt-4o",
		Provider:       ProviderOpenAI,
		DisplayName:    "GPT-4o",
		Summary:        "高质量多模态通用，适合复杂问题与视觉输入。",
		RecommendedFor: []string{"复杂问答", "多模态理解", "高质量输出", "严谨表达"},
		Capabilities:   Capabilities{Streaming: true, Tools: true, Vision: true, JSON: true},
		DefaultAgent: Persona{
			Name:         "英语辅导老师",
			SystemPrompt: "你是一个专业的英语辅导老师智能体，输出标准的英语语法、词汇和句子结构。而且可以批改学生的英语作文。",
			Temperature:  0.3,
		},
		UpstreamModel: "gpt-4o",
	},
	{
		ModelID:        "gpt-4o-mini",
		Provider:       ProviderOpenAI,
		DisplayName:    "GPT-4o mini",
		Summary:        "更快更省的通用模型，适合高频日常问答与轻量任务。",
		RecommendedFor: []string{"高频问答", "轻量写作", "头脑风暴", "快速草稿"},
		Capabilities:   Capabilities{Streaming: true, Tools: true, Vision: true, JSON: true},
		DefaultAgent: Persona{
			Name:         "高效通用助手",
			SystemPrompt: "你是高效的助手，优先给出简洁可执行的答案。",
			Temperature:  0.4,
		},
		UpstreamModel: "gpt-4o-mini",
	},
}

// Entries returns a copy of the full catalog in declaration order.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// ByModelID looks up a catalog entry by its public model identifier.
func ByModelID(modelID string) (Entry, bool) {
	for _, e := range entries {
		if e.ModelID == modelID {
			return e, true
		}
	}
	return Entry{}, false
}

// ModelIDs returns all known model identifiers in declaration order.
func ModelIDs() []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ModelID
	}
	return ids
}

// ModelIDsForProvider returns the identifiers of all entries routed to the
// given provider.
func ModelIDsForProvider(p Provider) []string {
	var ids []string
	for _, e := range entries {
		if e.Provider == p {
			ids = append(ids, e.ModelID)
		}
	}
	return ids
}

// IsImageOnly reports whether the model identifier names an
// image-generation-only model.
func IsImageOnly(modelID string) bool {
	return strings.HasPrefix(modelID, imageModelPrefix)
}

// Validate checks the catalog invariants: model identifiers must be unique,
// and every Volcengine entry without a literal upstream model name must carry
// an endpoint environment variable.
func Validate() error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.ModelID]; dup {
			return fmt.Errorf("duplicate modelId in catalog: %s", e.ModelID)
		}
		seen[e.ModelID] = struct{}{}

		switch e.Provider {
		case ProviderOpenAI:
			if e.UpstreamModel == "" {
				return fmt.Errorf("model %s is missing an upstream model name", e.ModelID)
			}
		case ProviderVolcengine:
			if e.UpstreamModel == "" && e.EndpointEnvVar == "" {
				return fmt.Errorf("model %s is missing an endpoint environment variable", e.ModelID)
			}
		default:
			return fmt.Errorf("model %s has unsupported provider: %s", e.ModelID, e.Provider)
		}
	}
	return nil
}

// SortedByProviderPreference returns the catalog entries ordered for
// presentation: Volcengine entries first, then OpenAI, preserving the
// declaration order within each provider.
func SortedByProviderPreference() []Entry {
	out := Entries()
	rank := map[Provider]int{ProviderVolcengine: 0, ProviderOpenAI: 1}
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Provider] < rank[out[j].Provider]
	})
	return out
}
