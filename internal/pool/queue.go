package pool

import "glspool/internal/job"

const minQueueCap = 16

// queue は呼び出し側でロックされる FIFO リングバッファ
type queue struct {
	buf   []job.Job
	head  int
	count int
}

func (q *queue) len() int {
	return q.count
}

func (q *queue) push(j job.Job) {
	if q.count == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.count)%len(q.buf)] = j
	q.count++
}

func (q *queue) pop() (job.Job, bool) {
	if q.count == 0 {
		return job.Job{}, false
	}
	j := q.buf[q.head]
	q.buf[q.head] = job.Job{}
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	// バースト後に大きなバッファを持ち続けない
	if len(q.buf) > minQueueCap && q.count < len(q.buf)/4 {
		q.resize(len(q.buf) / 2)
	}
	return j, true
}

func (q *queue) capacity() int {
	return len(q.buf)
}

func (q *queue) grow() {
	q.resize(max(len(q.buf)*2, minQueueCap))
}

func (q *queue) resize(n int) {
	buf := make([]job.Job, n)
	for i := range q.count {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
