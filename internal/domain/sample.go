package domain

// SampleEntries returns a small starter dataset users can download to see the
// expected import shape.
func SampleEntries() []*Entry {
	return []*Entry{
		{
			Question:           "What is machine learning?",
			GroundTruthChunkID: "ML-101",
			GroundTruthText:    "Machine learning is a subset of artificial intelligence that enables systems to learn and improve from experience without being explicitly programmed. It focuses on developing computer programs that can access data and use it to learn for themselves.",
		},
		{
			Question:           "What are the main types of machine learning?",
			GroundTruthChunkID: "ML-102",
			GroundTruthText:    "The three main types of machine learning are: 1) Supervised Learning - where the model learns from labeled training data, 2) Unsupervised Learning - where the model finds patterns in unlabeled data, and 3) Reinforcement Learning - where the model learns through trial and error using feedback from its own actions.",
		},
		{
			Question:           "What is neural network architecture?",
			GroundTruthChunkID: "NN-201",
			GroundTruthText:    "A neural network architecture refers to the arrangement of neurons and layers in a neural network. It includes the input layer, one or more hidden layers, and an output layer. Each layer contains interconnected nodes (neurons) that process information and pass it to the next layer.",
		},
		{
			Question:           "What is the purpose of the activation function in neural networks?",
			GroundTruthChunkID: "NN-202",
			GroundTruthText:    "Activation functions introduce non-linearity into the neural network, allowing it to learn complex patterns. Common activation functions include ReLU (Rectified Linear Unit), Sigmoid, and Tanh. They determine whether a neuron should be activated based on the weighted sum of its inputs.",
		},
		{
			Question:           "What is data preprocessing and why is it important?",
			GroundTruthChunkID: "DATA-301",
			GroundTruthText:    "Data preprocessing is the process of cleaning and transforming raw data before training a machine learning model. It includes handling missing values, removing duplicates, normalizing data, and encoding categorical variables. Proper preprocessing improves model accuracy and training efficiency.",
		},
		{
			Question:           "What is overfitting in machine learning?",
			GroundTruthChunkID: "ML-103",
			GroundTruthText:    "Overfitting occurs when a machine learning model learns the training data too well, including its noise and outliers, resulting in poor performance on new, unseen data. The model essentially memorizes the training data rather than learning general patterns. Techniques like regularization, cross-validation, and using more training data can help prevent overfitting.",
		},
		{
			Question:           "What is the difference between classification and regression?",
			GroundTruthChunkID: "ML-104",
			GroundTruthText:    "Classification and regression are both supervised learning tasks, but they differ in their output types. Classification predicts discrete categories or classes (e.g., spam or not spam), while regression predicts continuous numerical values (e.g., house prices). Classification uses metrics like accuracy and F1-score, whereas regression uses MSE and R-squared.",
		},
		{
			Question:           "What is feature engineering?",
			GroundTruthChunkID: "DATA-302",
			GroundTruthText:    "Feature engineering is the process of selecting, modifying, or creating new features from raw data to improve machine learning model performance. It involves domain knowledge to transform data into a format that better represents the underlying problem, potentially including feature scaling, creating interaction terms, or extracting features from text or images.",
		},
	}
}
