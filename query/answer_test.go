package query_test

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rlch/moviekg"
	"github.com/rlch/moviekg/ingest"
	"github.com/rlch/moviekg/metrics"
	"github.com/rlch/moviekg/query"
	"github.com/rlch/moviekg/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtGraph(t *testing.T) *storetest.Graph {
	t.Helper()

	g := storetest.New()
	ds := ingest.Dataset{
		Columns: ingest.RequiredColumns,
		Rows: []ingest.Record{
			{
				"title": "ExampleMovie", "director": "A.Director", "actor": "B.Actor/C.Actor",
				"rate": "9.7", "num": "12345", "info": "", "time": "2001-01-01",
				"country": "美国", "type": "剧情",
			},
			{
				"title": "霸王别姬", "director": "陈凯歌", "actor": "张国荣/张丰毅/巩俐",
				"rate": "9.6", "num": "1,234,567人评价", "info": "一段故事", "time": "1993-01-01",
				"country": "中国大陆", "type": "剧情/爱情",
			},
		},
	}

	_, err := ingest.New(g).Build(t.Context(), ds)
	require.NoError(t, err)

	return g
}

func newAnswerer(g moviekg.Store, m *metrics.Metrics) *query.Answerer {
	dict := query.Dictionary{"霸王别姬", "ExampleMovie"}.SortLongestFirst()

	return query.NewAnswerer(query.NewExtractor(dict), query.NewEngine(g, query.WithMetrics(m)))
}

func TestAnswerer_EndToEnd(t *testing.T) {
	t.Parallel()

	a := newAnswerer(builtGraph(t), nil)

	tests := []struct {
		question string
		want     string
	}{
		{"ExampleMovie的评分是多少", "ExampleMovie 这部电影的评分为 '9.7'"},
		{"ExampleMovie的主演有谁", "ExampleMovie 这部电影的主演为 'B.Actor/C.Actor'"},
		{"ExampleMovie的导演是谁？", "ExampleMovie 这部电影的导演为 'A.Director'"},
		{"霸王别姬有多少人评价", "霸王别姬 这部电影的评价人数为 '1234567'"},
		{"霸王别姬是哪个国家的", "霸王别姬 这部电影的制片国家为 '中国大陆'"},
		{"霸王别姬是什么类型", "霸王别姬 这部电影的类型为 '剧情/爱情'"},
		{"霸王别姬的演员表", "霸王别姬 这部电影的主演为 '张国荣/张丰毅/巩俐'"},
		{"霸王别姬好看吗", "抱歉，未能理解你的问题"},
		{"阿甘正传的导演是谁", "未找到电影《阿甘正传》的信息"},
		{"他的评分？", "抱歉，未能识别电影名称，请检查电影名是否正确"},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, a.Answer(t.Context(), tt.question).Text)
		})
	}
}

func TestBuild_BlankSynopsisStoresSentinel(t *testing.T) {
	t.Parallel()

	g := builtGraph(t)

	// A blank synopsis is stored as its sentinel, which is a real value.
	rows, err := g.Execute(t.Context(), moviekg.CypherMovieProperty, map[string]any{
		"title":    "ExampleMovie",
		"property": moviekg.PropSynopsis,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "unknown-info", rows[0]["value"])
}

func TestAnswerer_NotRecognizedSkipsStore(t *testing.T) {
	t.Parallel()

	g := storetest.New()
	a := newAnswerer(g, nil)

	ans := a.Answer(t.Context(), "  是谁的电影？  ")

	assert.False(t, ans.Recognized)
	assert.Equal(t, "是谁的电影？", ans.Question)
	assert.Equal(t, query.NotRecognizedMessage, ans.Text)
	assert.Empty(t, ans.Title)
	assert.Empty(t, g.Executed())
}

func TestAnswerer_Fields(t *testing.T) {
	t.Parallel()

	a := newAnswerer(builtGraph(t), nil)

	ans := a.Answer(t.Context(), "ExampleMovie的评分人数")

	assert.True(t, ans.Recognized)
	assert.Equal(t, "ExampleMovie", ans.Title)
	assert.Equal(t, query.Rate, ans.Intent, "评分 is matched before 评分人数")
	assert.Equal(t, query.Outcome{Kind: query.Found, Value: "9.7"}, ans.Outcome)
}

func TestAnswerer_Concurrent(t *testing.T) {
	t.Parallel()

	a := newAnswerer(builtGraph(t), nil)

	var wg sync.WaitGroup

	for range 16 {
		wg.Go(func() {
			assert.Equal(t, "霸王别姬 这部电影的导演为 '陈凯歌'", a.Answer(t.Context(), "霸王别姬的导演").Text)
		})
	}

	wg.Wait()
}

func TestAnswerer_Metrics(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	a := newAnswerer(builtGraph(t), m)

	a.Answer(t.Context(), "霸王别姬的导演")
	a.Answer(t.Context(), "霸王别姬的导演")
	a.Answer(t.Context(), "他的评分？")

	assert.InDelta(t, 2, testutil.ToFloat64(m.Answers.WithLabelValues("director", "found")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Answers.WithLabelValues("unknown", "not_recognized")), 0)
}
